package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maherduit/statement-engine/internal/config"
	"github.com/maherduit/statement-engine/internal/engine"
	"github.com/maherduit/statement-engine/internal/models"
)

const cimbText = `CIMB BANK BERHAD (13491-P)
Date Description Cheque / Ref No Withdrawal Deposits Tax Balance
OPENING BALANCE 1,000.00
05/02/2024 DUITNOW TRANSFER 100.00 900.00
06/02/2024 SALARY FEB 3,000.00 3,900.00
CLOSING BALANCE 3,900.00`

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.Batch.MaxDocuments = 2
	eng := engine.New(engine.OptionsFromConfig(cfg), nil)
	return NewServer(eng, cfg, nil).App()
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename != "" {
			fw, err := mw.CreateFormFile(p.field, p.filename)
			require.NoError(t, err)
			_, err = fw.Write([]byte(p.content))
			require.NoError(t, err)
			continue
		}
		require.NoError(t, mw.WriteField(p.field, p.content))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	result := decode[map[string]string](t, resp)
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
	if result["timestamp"] == "" {
		t.Error("expected timestamp")
	}
}

func TestRootEndpoint(t *testing.T) {
	resp, err := setupTestApp(t).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProcessRequiresInput(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(multipartRequest(t, "/process", part{field: "bank", content: "cimb"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "No file uploaded")
}

func TestProcessRejectsUnsupportedFile(t *testing.T) {
	resp, err := setupTestApp(t).Test(multipartRequest(t, "/process",
		part{field: "file", filename: "statement.docx", content: "x"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProcessExtractedText(t *testing.T) {
	pages := strings.Replace(cimbText, "\nOPENING BALANCE", PageBreak+"OPENING BALANCE", 1)

	resp, err := setupTestApp(t).Test(multipartRequest(t, "/process", part{field: "extractedText", content: pages}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[ProcessResponse](t, resp)
	require.True(t, out.Success)
	require.NotNil(t, out.Data)
	assert.Equal(t, models.FormatCIMB, out.Data.BankDetected)
	assert.NotEmpty(t, out.Data.ProcessingID)
	assert.Equal(t, 2, out.Data.TransactionCount)
	assert.Equal(t, "100.00", out.Data.Summary.TotalDebits)
	assert.Equal(t, "3000.00", out.Data.Summary.TotalCredits)
	assert.Contains(t, out.Data.CSV, "date,description,debit,credit,balance")
	assert.Empty(t, out.Data.Diagnostics)
}

func TestProcessTextFile(t *testing.T) {
	resp, err := setupTestApp(t).Test(multipartRequest(t, "/process",
		part{field: "file", filename: "statement.txt", content: cimbText},
		part{field: "header", content: "false"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[ProcessResponse](t, resp)
	assert.Equal(t, 2, out.Data.TransactionCount)
	assert.NotContains(t, out.Data.CSV, "# Format")
}

func TestProcessTextEndpoint(t *testing.T) {
	app := setupTestApp(t)

	body := `{"pages":[["01/01/24 OPENING BALANCE 1,000.00","02/01/24 GROCERY STORE 50.00 950.00"]],"account_hint":"Maybank Savings"}`
	req := httptest.NewRequest(http.MethodPost, "/process-text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[ProcessResponse](t, resp)
	assert.Equal(t, models.FormatMaybank, out.Data.BankDetected)
	assert.Zero(t, out.Data.Confidence)
	require.Len(t, out.Data.Transactions, 1)
	assert.Equal(t, "50.00", out.Data.Summary.TotalDebits)
	require.NotNil(t, out.Data.Summary.OpeningBalance)
	assert.Equal(t, "1000.00", *out.Data.Summary.OpeningBalance)
}

func TestProcessTextRejectsBadShape(t *testing.T) {
	app := setupTestApp(t)

	for _, body := range []string{
		`{"pages":"just a string"}`,
		`{"pages":[["ok"], [1, 2]]}`,
		`{"account_hint":"cimb"}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/process-text", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestProcessBatch(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(multipartRequest(t, "/process-batch",
		part{field: "files", filename: "a.txt", content: cimbText},
		part{field: "files", filename: "b.pdf", content: "not really a pdf"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode[BatchResponse](t, resp)
	require.NotNil(t, out.Data)
	assert.NotEmpty(t, out.Data.BatchID)
	require.Len(t, out.Data.Results, 2)
	assert.True(t, out.Data.Results[0].Success)
	assert.Equal(t, "a.txt", out.Data.Results[0].Filename)
	assert.False(t, out.Data.Results[1].Success)
	assert.NotEmpty(t, out.Data.Results[1].Error)
	assert.Equal(t, engine.BatchSummary{Documents: 2, Succeeded: 1, Failed: 1, Transactions: 2}, out.Data.Summary)
}

func TestProcessBatchTooLarge(t *testing.T) {
	resp, err := setupTestApp(t).Test(multipartRequest(t, "/process-batch",
		part{field: "files", filename: "a.txt", content: cimbText},
		part{field: "files", filename: "b.txt", content: cimbText},
		part{field: "files", filename: "c.txt", content: cimbText}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.Contains(t, out.Message, "maximum")
}

func TestProcessBatchTooLarge_CheckedBeforeReading(t *testing.T) {
	// The unsupported upload would fail on read; the cap must be reported first.
	resp, err := setupTestApp(t).Test(multipartRequest(t, "/process-batch",
		part{field: "files", filename: "a.docx", content: "word"},
		part{field: "files", filename: "b.txt", content: cimbText},
		part{field: "files", filename: "c.txt", content: cimbText}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decode[ErrorResponse](t, resp)
	assert.Contains(t, out.Message, "exceeds maximum number of documents")
	assert.Contains(t, out.Message, "limit 2")
	assert.NotContains(t, out.Message, "only PDF and text files")
}
