package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndexer struct {
	result   entity.DecodeResult
	err      error
	payloads [][]byte
	address  string
	limit    int
}

func (s *stubIndexer) ProcessMessage(_ context.Context, msg *entity.StreamMessage) (entity.DecodeResult, error) {
	s.payloads = append(s.payloads, msg.Payload)
	return s.result, s.err
}

func (s *stubIndexer) ProcessMessageBatch(context.Context, []*entity.StreamMessage) error {
	return nil
}

func (s *stubIndexer) GetTransfersForWallet(_ context.Context, address string, limit int) ([]*entity.TransferRelationship, error) {
	s.address, s.limit = address, limit
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.TransferRelationship{{FromAddress: address, Value: "1"}}, nil
}

func serve(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHealth(t *testing.T) {
	srv := NewServer(0, 0, &stubIndexer{}, nil, logger.NewNopLogger())

	rec := serve(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStreamsOutcomes(t *testing.T) {
	set := entity.NewTransferSet()
	set.ERC20 = append(set.ERC20, &entity.ERC20Transfer{Type: entity.TransferTypeERC20, Value: "100"})

	cases := map[string]struct {
		result entity.DecodeResult
		want   string
	}{
		"no events": {entity.NoEvents(), `null`},
		"fault":     {entity.Fault("stream payload is not a bundle sequence"), `{"error":"stream payload is not a bundle sequence"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := NewServer(0, 0, &stubIndexer{result: tc.result}, nil, logger.NewNopLogger())
			rec := serve(t, srv, http.MethodPost, "/streams", `[]`)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}

	t.Run("events", func(t *testing.T) {
		indexer := &stubIndexer{result: entity.Events(set), err: errors.New("storage down")}
		srv := NewServer(0, 0, indexer, nil, logger.NewNopLogger())

		rec := serve(t, srv, http.MethodPost, "/streams", `{"data": []}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"value":"100"`)
		assert.Contains(t, rec.Body.String(), `"erc721":[]`)
		assert.Equal(t, [][]byte{[]byte(`{"data": []}`)}, indexer.payloads)
	})
}

func TestStreamsMethodAndSize(t *testing.T) {
	srv := NewServer(0, 8, &stubIndexer{}, nil, logger.NewNopLogger())

	rec := serve(t, srv, http.MethodGet, "/streams", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(t, srv, http.MethodPost, "/streams", `[{"block": {}}]`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestWalletTransfers(t *testing.T) {
	indexer := &stubIndexer{}
	srv := NewServer(0, 0, indexer, nil, logger.NewNopLogger())

	rec := serve(t, srv, http.MethodGet, "/wallets/0xabc/transfers?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xabc", indexer.address)
	assert.Equal(t, 5, indexer.limit)
	assert.Contains(t, rec.Body.String(), `"from_address":"0xabc"`)

	rec = serve(t, srv, http.MethodGet, "/wallets/0xabc/transfers?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	indexer.err = errors.New("db down")
	rec = serve(t, srv, http.MethodGet, "/wallets/0xabc/transfers", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metric 1\n"))
	})
	srv := NewServer(0, 0, &stubIndexer{}, metrics, logger.NewNopLogger())

	rec := serve(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metric 1\n", rec.Body.String())

	without := NewServer(0, 0, &stubIndexer{}, nil, logger.NewNopLogger())
	assert.Equal(t, http.StatusNotFound, serve(t, without, http.MethodGet, "/metrics", "").Code)
}
