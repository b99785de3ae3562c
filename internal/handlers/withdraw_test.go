package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/sbilibin2017/bank-ledger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawHandler(t *testing.T) {
	tests := []struct {
		name               string
		requestBody        any
		setupMocks         func(m *MockWithdrawer)
		expectedStatusCode int
		expectedKey        string
	}{
		{
			name:        "successful withdrawal",
			requestBody: `{"amount":"25.00"}`,
			setupMocks: func(m *MockWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), testAccount, decEq("25")).Return(&models.TransactionRecord{
					AccountNo: testAccount, TxnNo: 4, Type: models.TransactionWithdraw, Amount: dec("25.00"),
				}, nil)
			},
			expectedStatusCode: http.StatusOK,
			expectedKey:        "transaction",
		},
		{
			name:        "insufficient balance",
			requestBody: `{"amount":"1000.00"}`,
			setupMocks: func(m *MockWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), testAccount, decEq("1000")).Return(nil, services.ErrInsufficientBalance)
			},
			expectedStatusCode: http.StatusUnprocessableEntity,
			expectedKey:        "error",
		},
		{
			name:        "negative amount",
			requestBody: `{"amount":"-5"}`,
			setupMocks: func(m *MockWithdrawer) {
				m.EXPECT().Withdraw(gomock.Any(), testAccount, decEq("-5")).Return(nil, services.ErrInvalidAmount)
			},
			expectedStatusCode: http.StatusBadRequest,
			expectedKey:        "error",
		},
		{
			name:               "invalid request body",
			requestBody:        "[]",
			setupMocks:         func(m *MockWithdrawer) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedKey:        "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewMockWithdrawer(ctrl)
			tt.setupMocks(svc)

			rr := httptest.NewRecorder()
			req := newRequest(http.MethodPost, "/accounts/100000011/withdraw", tt.requestBody, testCustomer, testAccount)
			NewWithdrawHandler(svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatusCode, rr.Code)
			_, ok := decodeBody(rr)[tt.expectedKey]
			assert.True(t, ok, "response should contain key %s", tt.expectedKey)
		})
	}
}

func TestWithdrawHandler_ResponseShape(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewMockWithdrawer(ctrl)
	svc.EXPECT().Withdraw(gomock.Any(), testAccount, decEq("2")).Return(&models.TransactionRecord{
		AccountNo: testAccount, TxnNo: 9, Type: models.TransactionWithdraw, Amount: dec("2.00"),
	}, nil)

	rr := httptest.NewRecorder()
	req := newRequest(http.MethodPost, "/accounts/100000011/withdraw", `{"amount":"2.00"}`, testCustomer, testAccount)
	NewWithdrawHandler(svc).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp TransactionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Withdrawal successful", resp.Message)
	assert.Equal(t, int64(9), resp.Transaction.TxnNo)
	assert.Equal(t, models.TransactionWithdraw, resp.Transaction.Type)
	assert.True(t, resp.Transaction.Amount.Equal(dec("2")))
}
