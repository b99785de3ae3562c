package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/shopspring/decimal"
)

const (
	testCustomer int64 = 1
	testAccount  int64 = 100000011
	otherAccount int64 = 100000012
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newRequest builds a request as it looks after the auth and ownership middlewares ran.
func newRequest(method, target string, body any, customerID, accountNo int64) *http.Request {
	var raw []byte
	switch v := body.(type) {
	case nil:
	case string:
		raw = []byte(v)
	default:
		raw, _ = json.Marshal(v)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	ctx := req.Context()
	if customerID > 0 {
		ctx = middlewares.WithCustomerID(ctx, customerID)
	}
	if accountNo > 0 {
		ctx = middlewares.WithAccountNo(ctx, accountNo)
	}
	return req.WithContext(ctx)
}

func decodeBody(rr *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	return resp
}

type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return "is decimal " + m.want.String() }

func decEq(s string) decimalMatcher { return decimalMatcher{want: dec(s)} }
