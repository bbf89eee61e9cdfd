package zuora

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const loginResponseBody = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <ns1:loginResponse xmlns:ns1="http://api.zuora.com/">
      <ns1:result>
        <ns1:Session>SESSION-TOKEN-42</ns1:Session>
      </ns1:result>
    </ns1:loginResponse>
  </soapenv:Body>
</soapenv:Envelope>`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(zap.NewNop(), Config{
		Username:   "ops@acme",
		Password:   "hunter2",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	}, nil)
	return c, srv
}

func TestAuthenticate_Success(t *testing.T) {
	var gotContentType, gotPath, gotBody string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(loginResponseBody))
	}))

	res, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "SESSION-TOKEN-42", c.SessionToken())

	assert.Equal(t, "text/xml", gotContentType)
	assert.Equal(t, "/apps/services/a/38.0", gotPath)
	assert.Contains(t, gotBody, "<ns1:username>ops@acme</ns1:username>")
	assert.Contains(t, gotBody, "<ns1:password>hunter2</ns1:password>")
	assert.NotContains(t, gotBody, "SessionHeader", "login request must be unauthenticated")
}

func TestAuthenticate_Non200IsErrorResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("invalid login"))
	}))

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var errResp *ErrorResponse
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusInternalServerError, errResp.StatusCode)
	assert.Empty(t, c.SessionToken(), "failed login must leave the token unset")
}

func TestAuthenticate_TransportFailureIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := NewClient(zap.NewNop(), Config{BaseURL: srv.URL}, nil)
	srv.Close() // connection refused from here on

	_, err := c.Authenticate(context.Background())
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr, "transport failures must be wrapped, never leaked raw")
	assert.Error(t, connErr.Unwrap())
	assert.Empty(t, c.SessionToken())
}

func TestAuthenticate_MalformedBodyYieldsEmptyToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("this is not a login response"))
	}))

	res, err := c.Authenticate(context.Background())
	require.NoError(t, err, "a 200 with a missing token path is not an error")
	assert.True(t, res.OK())
	assert.Empty(t, c.SessionToken())
	assert.False(t, c.Authenticated())
}

func TestCreateObject_FailsFastWithoutSession(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.CreateRefund(context.Background(), Data{"account_id": "A1"})
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.EqualValues(t, 0, calls.Load(), "precondition failure must happen before any I/O")
}

func TestCreateObject_ReturnsRawNon200(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<fault>INVALID_VALUE</fault>`))
	}))
	c.SetSessionToken("tok")

	res, err := c.CreateRefund(context.Background(), Data{"account_id": "A1"})
	require.NoError(t, err, "create responses are returned uninterpreted")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(res.Body), "INVALID_VALUE")
}

func TestCreateRefundXML_WhitelistOrderAndValues(t *testing.T) {
	c := NewClient(zap.NewNop(), Config{}, nil)
	c.SetSessionToken("tok")

	data, err := c.CreateRefundXML(Data{
		"account_id": "A1",
		"amount":     decimal.NewFromInt(10),
		"payment_id": "P1",
		"type":       "Electronic",
		"comment":    "not whitelisted, must not appear",
	})
	require.NoError(t, err)

	doc := parseDoc(t, data)
	obj := doc.FindElement("//Body/create/zObjects")
	require.NotNil(t, obj)
	assert.Equal(t, "ns2:Refund", obj.SelectAttrValue("xsi:type", ""))

	children := obj.ChildElements()
	require.Len(t, children, 4, "exactly the whitelisted fields, nothing else")
	assert.Equal(t, "AccountId", children[0].Tag)
	assert.Equal(t, "A1", children[0].Text())
	assert.Equal(t, "Amount", children[1].Tag)
	assert.Equal(t, "10", children[1].Text())
	assert.Equal(t, "PaymentId", children[2].Tag)
	assert.Equal(t, "P1", children[2].Text())
	assert.Equal(t, "Type", children[3].Tag)
	assert.Equal(t, "Electronic", children[3].Text())

	assert.Nil(t, doc.FindElement("//comment"))
	assert.Equal(t, "tok", doc.FindElement("//Header/SessionHeader/session").Text())
}

func TestCreateRefundXML_OmitsFalsyValues(t *testing.T) {
	c := NewClient(zap.NewNop(), Config{}, nil)
	c.SetSessionToken("tok")

	data, err := c.CreateRefundXML(Data{
		"account_id": "A1",
		"amount":     nil,
	})
	require.NoError(t, err)

	doc := parseDoc(t, data)
	assert.NotNil(t, doc.FindElement("//zObjects/AccountId"))
	assert.Nil(t, doc.FindElement("//zObjects/Amount"), "nil values are omitted, not emitted empty")

	// Zero values are dropped too; that is the platform's contract.
	data, err = c.CreateRefundXML(Data{
		"account_id": "A1",
		"amount":     decimal.Zero,
	})
	require.NoError(t, err)
	doc = parseDoc(t, data)
	assert.Nil(t, doc.FindElement("//zObjects/Amount"))
}

func TestCreateBillRunXML_BooleanAndIntHandling(t *testing.T) {
	c := NewClient(zap.NewNop(), Config{}, nil)
	c.SetSessionToken("tok")

	data, err := c.CreateBillRunXML(Data{
		"account_id":     "A9",
		"auto_email":     true,
		"auto_post":      false,
		"bill_cycle_day": 15,
		"invoice_date":   "2026-09-01",
		"target_date":    "2026-09-01",
	})
	require.NoError(t, err)

	doc := parseDoc(t, data)
	obj := doc.FindElement("//Body/create/zObjects")
	require.NotNil(t, obj)
	assert.Equal(t, "ns2:BillRun", obj.SelectAttrValue("xsi:type", ""))

	assert.Equal(t, "true", doc.FindElement("//zObjects/AutoEmail").Text())
	assert.Nil(t, doc.FindElement("//zObjects/AutoPost"), "false booleans are dropped")
	assert.Equal(t, "15", doc.FindElement("//zObjects/BillCycleDay").Text())
	assert.Equal(t, "2026-09-01", doc.FindElement("//zObjects/InvoiceDate").Text())

	// Whitelist order sanity: AccountId first, TargetDate last.
	children := obj.ChildElements()
	assert.Equal(t, "AccountId", children[0].Tag)
	assert.Equal(t, "TargetDate", children[len(children)-1].Tag)
}

func TestCreateObjectXML_UnknownType(t *testing.T) {
	c := NewClient(zap.NewNop(), Config{}, nil)
	c.SetSessionToken("tok")

	_, err := c.CreateObjectXML("Imaginary", Data{})
	var unkErr *UnknownObjectError
	require.ErrorAs(t, err, &unkErr)
	assert.Equal(t, "Imaginary", unkErr.TypeName)
}

func TestEndpointSelection(t *testing.T) {
	sandbox := NewClient(zap.NewNop(), Config{Sandbox: true}, nil)
	assert.Equal(t, "https://sandbox.zuora.example.com/apps/services/a/38.0", sandbox.Endpoint())

	prod := NewClient(zap.NewNop(), Config{Sandbox: false}, nil)
	assert.Equal(t, "https://api.zuora.example.com/apps/services/a/38.0", prod.Endpoint())

	pinned := NewClient(zap.NewNop(), Config{BaseURL: "http://127.0.0.1:9", APIVersion: "42.0"}, nil)
	assert.Equal(t, "http://127.0.0.1:9/apps/services/a/42.0", pinned.Endpoint())
}

func TestCreateObject_SendsAuthenticatedEnvelope(t *testing.T) {
	var gotBody string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<ok/>`))
	}))
	c.SetSessionToken("SESSION-TOKEN-42")

	res, err := c.CreateBillRun(context.Background(), Data{
		"account_id":  "A9",
		"target_date": "2026-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, gotBody, "<ns1:session>SESSION-TOKEN-42</ns1:session>")
	assert.Contains(t, gotBody, `xsi:type="ns2:BillRun"`)
}

func TestConnectionErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
