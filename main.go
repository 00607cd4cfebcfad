// Project Structure Overview
/*
pharma-net/
├── cmd/
│   ├── chaincode/
│   │   └── main.go          # contract as a Fabric chaincode process
│   ├── server/
│   │   └── main.go          # REST gateway over a local ledger store
│   └── token/
│       └── main.go          # issues organization bearer tokens
├── internal/
│   ├── config/
│   │   ├── config.go
│   │   └── database.go
│   ├── ledger/
│   │   ├── ledger.go        # Ledger port, iterators, errors
│   │   ├── keys.go          # composite keys and prefix resolution
│   │   ├── tx.go            # staged transactions over a Store
│   │   ├── memory_store.go
│   │   ├── gorm_store.go    # sqlite / postgres
│   │   └── fabric.go        # Ledger over a chaincode stub
│   ├── identity/
│   │   └── identity.go
│   ├── models/
│   │   ├── common.go
│   │   ├── company.go
│   │   ├── drug.go
│   │   └── transfer.go
│   ├── services/
│   │   ├── registration_service.go
│   │   ├── transfer_service.go
│   │   ├── query_service.go
│   │   ├── state.go
│   │   └── errors.go
│   ├── contract/
│   │   ├── dispatch.go
│   │   └── chaincode.go
│   ├── gateway/
│   │   └── gateway.go       # per-request connections
│   ├── handlers/
│   │   ├── gateway.go
│   │   ├── registration.go
│   │   ├── transfer.go
│   │   └── lifecycle.go
│   ├── middleware/
│   │   ├── auth.go
│   │   ├── cors.go
│   │   ├── rate_limit.go
│   │   └── logging.go
│   ├── metrics/
│   │   └── metrics.go
│   ├── database/
│   │   └── connection.go
│   ├── utils/
│   │   ├── jwt.go
│   │   ├── validator.go
│   │   └── response.go
│   └── router/
│       └── router.go
├── go.mod
└── go.sum
*/

package pharmanet

// This file shows the project structure. The entry points live under cmd/.
