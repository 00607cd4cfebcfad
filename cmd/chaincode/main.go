// cmd/chaincode/main.go
package main

import (
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/contract"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	cc := contract.NewChaincode(contract.New(log), nil)
	if err := shim.Start(cc); err != nil {
		log.WithError(err).Fatal("Failed to start pharmanet chaincode")
	}
}
