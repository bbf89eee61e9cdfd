package zuora

import (
	"strings"

	"github.com/beevik/etree"
)

// Every envelope declares the same four namespaces: SOAP envelope, API root
// (ns1), API object (ns2), and XML Schema instance.
const (
	soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"
	apiNS     = "http://api.zuora.com/"
	objectNS  = "http://object.api.zuora.com/"
	xsiNS     = "http://www.w3.org/2001/XMLSchema-instance"
)

// sessionTokenPath locates the session value inside a login response.
const sessionTokenPath = "//loginResponse/result/Session"

type bodyFunc func(body *etree.Element)

// newEnvelope builds a SOAP envelope document. The Header subtree is emitted
// only when sessionToken is non-empty, the Body subtree only when buildBody
// is non-nil, so the same builder serves the unauthenticated login request
// and authenticated create requests.
func newEnvelope(sessionToken string, buildBody bodyFunc) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", soapEnvNS)
	env.CreateAttr("xmlns:ns1", apiNS)
	env.CreateAttr("xmlns:ns2", objectNS)
	env.CreateAttr("xmlns:xsi", xsiNS)

	if sessionToken != "" {
		header := env.CreateElement("soapenv:Header")
		sh := header.CreateElement("ns1:SessionHeader")
		sh.CreateElement("ns1:session").SetText(sessionToken)
	}

	if buildBody != nil {
		body := env.CreateElement("soapenv:Body")
		buildBody(body)
	}

	return doc
}

// loginBody fills the Body with the username/password login payload.
func loginBody(username, password string) bodyFunc {
	return func(body *etree.Element) {
		login := body.CreateElement("ns1:login")
		login.CreateElement("ns1:username").SetText(username)
		login.CreateElement("ns1:password").SetText(password)
	}
}

// createBody fills the Body with a create/zObjects payload for one object.
// Fields are emitted in whitelist order; absent or falsy values are omitted
// entirely rather than sent as empty elements.
func createBody(typeName string, fields []string, data Data) bodyFunc {
	return func(body *etree.Element) {
		create := body.CreateElement("ns1:create")
		obj := create.CreateElement("ns1:zObjects")
		obj.CreateAttr("xsi:type", "ns2:"+typeName)
		for _, field := range fields {
			val, ok := renderValue(data[fieldKey(field)])
			if !ok {
				continue
			}
			obj.CreateElement("ns2:" + field).SetText(val)
		}
	}
}

// extractSessionToken pulls the session token out of a login response body.
// A malformed document or a missing token path yields an empty token rather
// than an error.
func extractSessionToken(body []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return ""
	}
	elem := doc.FindElement(sessionTokenPath)
	if elem == nil {
		// Some stacks prefix every response element; match on local name.
		elem = doc.FindElement("//*[local-name()='Session']")
	}
	if elem == nil {
		return ""
	}
	return strings.TrimSpace(elem.Text())
}
