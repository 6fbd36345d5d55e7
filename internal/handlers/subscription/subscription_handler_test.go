package subscription

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"pocket-agency-service/internal/domain/subscription"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestListPlansReturnsPriceList(t *testing.T) {
	h := NewSubscriptionHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)

	h.ListPlans(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                    `json:"success"`
		Data    []subscription.PlanInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, subscription.PlanBasic, body.Data[0].Plan)
	assert.Equal(t, "3000.00", body.Data[0].Price)
	assert.Equal(t, subscription.PlanPro, body.Data[1].Plan)
	assert.Equal(t, "8000.00", body.Data[1].Price)
}
