package omada

import (
	"errors"
	"testing"
)

func TestApiErrorOperatorMessage(t *testing.T) {
	tests := []struct {
		code int
		msg  string
		want string
	}{
		{code: CodeSiteNotFound, msg: "whatever", want: "Site does not exist on the controller"},
		{code: CodeDuplicateGroupName, msg: "dup", want: "A voucher group with this name already exists"},
		{code: CodeVoucherLimitReached, msg: "", want: "The controller voucher limit has been reached for this site"},
		{code: -99999, msg: "raw controller text", want: "raw controller text"},
		{code: -99999, msg: "", want: "Controller error -99999"},
	}

	for _, tt := range tests {
		e := &ApiError{Code: tt.code, Message: tt.msg}
		if got := e.OperatorMessage(); got != tt.want {
			t.Fatalf("OperatorMessage for code %d = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestIsTokenRejected(t *testing.T) {
	if !IsTokenRejected(&ApiError{Code: CodeTokenExpired}) {
		t.Fatalf("expected token expired code to be a rejection")
	}
	if !IsTokenRejected(&ApiError{Code: CodeInvalidGrant}) {
		t.Fatalf("expected invalid grant code to be a rejection")
	}
	if IsTokenRejected(&ApiError{Code: CodeSiteNotFound}) {
		t.Fatalf("site not found is not a token rejection")
	}
	if IsTokenRejected(&TransportError{Op: "test", Err: errors.New("boom")}) {
		t.Fatalf("transport errors are never token rejections")
	}

	// Rejections survive wrapping.
	wrapped := &TransportError{Op: "outer", Err: &ApiError{Code: CodeTokenExpired}}
	if !IsTokenRejected(wrapped) {
		t.Fatalf("expected wrapped rejection to be detected")
	}
}

func TestOperatorMessageTranslation(t *testing.T) {
	if got := OperatorMessage(&ApiError{Code: CodePortalNotConfigured}); got != "No portal is configured for this site on the controller" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if got := OperatorMessage(&AuthError{Reason: "bad secret"}); got != "Controller authentication failed, check the API configuration" {
		t.Fatalf("unexpected auth translation: %q", got)
	}
	if got := OperatorMessage(&TransportError{Op: "listSites", Err: errors.New("dial tcp: timeout")}); got != "Could not reach the controller, check the connection" {
		t.Fatalf("unexpected transport translation: %q", got)
	}
	if got := OperatorMessage(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestDecodeEnvelopeFailsClosed(t *testing.T) {
	if _, err := decodeEnvelope([]byte(`{"msg":"ok","result":{}}`)); err == nil {
		t.Fatalf("expected missing errorCode to be an error")
	}
	if _, err := decodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected undecodable body to be an error")
	}

	_, err := decodeEnvelope([]byte(`{"errorCode":-42059,"msg":"duplicate"}`))
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ApiError, got %v", err)
	}
	if apiErr.Code != CodeDuplicateGroupName || apiErr.Message != "duplicate" {
		t.Fatalf("unexpected decoded error: %+v", apiErr)
	}

	result, err := decodeEnvelope([]byte(`{"errorCode":0,"msg":"Success","result":{"a":1}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `{"a":1}` {
		t.Fatalf("unexpected result payload: %s", result)
	}
}
