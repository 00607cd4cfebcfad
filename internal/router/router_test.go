package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/exploreiib/pharma-net/internal/config"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/models"
	"github.com/exploreiib/pharma-net/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    map[string]any  `json:"meta"`
}

func testConfig() *config.Config {
	orgs, _ := config.ParseOrganizations("manufacturer:manufacturerMSP,distributor:distributorMSP," +
		"retailer:retailerMSP,transporter:transporterMSP,consumer:consumerMSP")
	return &config.Config{
		Environment:   "test",
		Ledger:        config.LedgerConfig{Backend: config.BackendMemory},
		RateLimit:     config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Organizations: orgs,
	}
}

type RouterTestSuite struct {
	suite.Suite
	server *Server
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	suite.server = Initialize(ledger.NewMemoryStore(), testConfig(), log)
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *RouterTestSuite) post(path string, body map[string]interface{}, headers ...string) (int, envelope) {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, req)

	var response envelope
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (suite *RouterTestSuite) registerNetwork() {
	for _, c := range []map[string]interface{}{
		{"nameOfOrg": "manufacturer", "companyCRN": "MAN001", "companyName": "Sun Pharma", "location": "Mumbai", "organisationRole": "Manufacturer"},
		{"nameOfOrg": "distributor", "companyCRN": "DIST001", "companyName": "VG Pharma", "location": "Delhi", "organisationRole": "Distributor"},
		{"nameOfOrg": "retailer", "companyCRN": "RET002", "companyName": "upgrad", "location": "Chennai", "organisationRole": "Retailer"},
		{"nameOfOrg": "transporter", "companyCRN": "TRA001", "companyName": "FedEx", "location": "Delhi", "organisationRole": "Transporter"},
	} {
		code, res := suite.post("/register/registerCompany", c)
		suite.Require().Equal(http.StatusOK, code, string(res.Data))
		suite.Equal("New Company got registered", res.Meta["message"])
	}
}

func (suite *RouterTestSuite) TestWelcomeAndHealth() {
	w := httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Welcome to the Pharmacy network", w.Body.String())

	w = httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"success":true`)
	suite.Contains(w.Body.String(), `"ledger":"memory"`)
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (suite *RouterTestSuite) TestFullLifecycle() {
	suite.registerNetwork()

	code, _ := suite.post("/register/addDrug", map[string]interface{}{
		"nameOfOrg": "manufacturer", "drugName": "Paracetamol", "serialNo": "001",
		"mfgDate": "2024-01-01", "expDate": "2026-01-01", "companyCRN": "MAN001",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.post("/transfer/createPO", map[string]interface{}{
		"nameOfOrg": "distributor", "buyerCRN": "DIST001", "sellerCRN": "MAN001", "drugName": "Paracetamol", "quantity": 1,
	})
	suite.Require().Equal(http.StatusOK, code)

	// The string-encoded form of the asset list is accepted.
	code, res := suite.post("/transfer/createShipment", map[string]interface{}{
		"nameOfOrg": "manufacturer", "buyerCRN": "DIST001", "drugName": "Paracetamol",
		"listOfAssets": `["001"]`, "transporterCRN": "TRA001",
	})
	suite.Require().Equal(http.StatusOK, code, res.Error)

	code, _ = suite.post("/transfer/updateShipment", map[string]interface{}{
		"nameOfOrg": "transporter", "buyerCRN": "DIST001", "drugName": "Paracetamol", "transporterCRN": "TRA001",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.post("/transfer/createPO", map[string]interface{}{
		"nameOfOrg": "retailer", "buyerCRN": "RET002", "sellerCRN": "DIST001", "drugName": "Paracetamol", "quantity": "1",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.post("/transfer/createShipment", map[string]interface{}{
		"nameOfOrg": "distributor", "buyerCRN": "RET002", "drugName": "Paracetamol",
		"listOfAssets": []string{"001"}, "transporterCRN": "TRA001",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.post("/transfer/updateShipment", map[string]interface{}{
		"nameOfOrg": "transporter", "buyerCRN": "RET002", "drugName": "Paracetamol", "transporterCRN": "TRA001",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, _ = suite.post("/transfer/retailDrug", map[string]interface{}{
		"nameOfOrg": "retailer", "drugName": "Paracetamol", "serialNo": "001",
		"retailerCRN": "RET002", "customerAadhar": "AADHAR-42",
	})
	suite.Require().Equal(http.StatusOK, code)

	code, res = suite.post("/view/viewHistory", map[string]interface{}{
		"nameOfOrg": "consumer", "drugName": "Paracetamol", "serialNo": "001",
	})
	suite.Require().Equal(http.StatusOK, code)
	var history []models.Drug
	suite.Require().NoError(json.Unmarshal(res.Data, &history))
	suite.Len(history, 6)
	suite.Equal("AADHAR-42", history[5].Owner)

	code, res = suite.post("/view/viewCurrentState", map[string]interface{}{
		"nameOfOrg": "consumer", "drugName": "Paracetamol", "serialNo": "001",
	})
	suite.Require().Equal(http.StatusOK, code)
	var current models.Drug
	suite.Require().NoError(json.Unmarshal(res.Data, &current))
	suite.Equal("AADHAR-42", current.Owner)
}

func (suite *RouterTestSuite) TestErrorStatuses() {
	suite.registerNetwork()

	code, res := suite.post("/view/viewCurrentState", map[string]interface{}{
		"nameOfOrg": "consumer", "drugName": "Aspirin", "serialNo": "404",
	})
	suite.Equal(http.StatusNotFound, code)
	suite.False(res.Success)

	code, _ = suite.post("/register/addDrug", map[string]interface{}{
		"nameOfOrg": "retailer", "drugName": "Paracetamol", "serialNo": "001",
		"mfgDate": "2024-01-01", "expDate": "2026-01-01", "companyCRN": "MAN001",
	})
	suite.Equal(http.StatusForbidden, code)

	code, res = suite.post("/transfer/createPO", map[string]interface{}{
		"nameOfOrg": "retailer", "buyerCRN": "RET002", "sellerCRN": "MAN001", "drugName": "Paracetamol", "quantity": 1,
	})
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("VALIDATION_ERROR", res.Error.Code)

	code, _ = suite.post("/transfer/updateShipment", map[string]interface{}{
		"nameOfOrg": "pharmacist", "buyerCRN": "DIST001", "drugName": "Paracetamol", "transporterCRN": "TRA001",
	})
	suite.Equal(http.StatusUnauthorized, code)

	code, res = suite.post("/register/registerCompany", map[string]interface{}{
		"companyCRN": "X1", "companyName": "Nameless", "location": "Pune", "organisationRole": "Retailer",
	})
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("VALIDATION_ERROR", res.Error.Code)

	code, _ = suite.post("/register/registerCompany", map[string]interface{}{
		"nameOfOrg": "manufacturer", "companyCRN": "MAN001", "companyName": "Sun Pharma", "location": "Mumbai", "organisationRole": "Manufacturer",
	})
	suite.Equal(http.StatusOK, code)
}

func (suite *RouterTestSuite) TestDuplicateDrugConflicts() {
	suite.registerNetwork()
	body := map[string]interface{}{
		"nameOfOrg": "manufacturer", "drugName": "Paracetamol", "serialNo": "001",
		"mfgDate": "2024-01-01", "expDate": "2026-01-01", "companyCRN": "MAN001",
	}
	code, _ := suite.post("/register/addDrug", body)
	suite.Require().Equal(http.StatusOK, code)
	code, res := suite.post("/register/addDrug", body)
	suite.Equal(http.StatusConflict, code)
	suite.Equal("CONFLICT", res.Error.Code)
}

func (suite *RouterTestSuite) TestInvalidRoleReturnsMessage() {
	code, res := suite.post("/register/registerCompany", map[string]interface{}{
		"nameOfOrg": "manufacturer", "companyCRN": "X1", "companyName": "Odd", "location": "Pune", "organisationRole": "Pharmacist",
	})
	suite.Equal(http.StatusOK, code)
	suite.Equal(`"Invalid Organisation Role"`, string(res.Data))
}

func (suite *RouterTestSuite) TestMalformedBody() {
	req, _ := http.NewRequest("POST", "/transfer/createShipment", bytes.NewBufferString(`{"listOfAssets": 7}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, req)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "BAD_REQUEST")
}

func (suite *RouterTestSuite) TestMetricsEndpoint() {
	suite.registerNetwork()
	w := httptest.NewRecorder()
	suite.server.Engine.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `pharmanet_operations_total{operation="registerCompany",outcome="ok"} 4`)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestTokenOrganization(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := testConfig()
	cfg.JWT = config.JWTConfig{SecretKey: "test-secret", TokenTTL: 1, Required: true}
	server := Initialize(ledger.NewMemoryStore(), cfg, log)
	defer server.Close()
	defer utils.SetJWTSecret("")

	s := &RouterTestSuite{server: server}
	s.SetT(t)

	body := map[string]interface{}{
		"companyCRN": "MAN001", "companyName": "Sun Pharma", "location": "Mumbai", "organisationRole": "Manufacturer",
	}
	code, _ := s.post("/register/registerCompany", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.post("/register/registerCompany", body, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := utils.GenerateJWT("manufacturer", 1)
	assert.NoError(t, err)
	bearer := "Bearer " + token

	body["nameOfOrg"] = "distributor"
	code, _ = s.post("/register/registerCompany", body, "Authorization", bearer)
	assert.Equal(t, http.StatusForbidden, code)

	delete(body, "nameOfOrg")
	code, res := s.post("/register/registerCompany", body, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, code)
	var company models.Company
	assert.NoError(t, json.Unmarshal(res.Data, &company))
	assert.Equal(t, "1", company.HierarchyKey)
}
