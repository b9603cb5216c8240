package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
)

var (
	submitServer    string
	submitSessionID string
	submitTimeout   time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Send a transcript to a running receiver",
	Long: `Send a session transcript to a running receiver.

A .jsonl file is read as one turn record per line; the verbatim file is sent
as rawJsonl so downloads return it unchanged. Any other file is sent as a
single JSON document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		sessionID := submitSessionID
		if sessionID == "" {
			sessionID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		body, err := buildSubmitBody(sessionID, data, strings.EqualFold(filepath.Ext(path), ".jsonl"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
		defer cancel()

		id, err := postReport(ctx, submitServer, body)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report stored: %s\n", id)
		return nil
	},
}

// buildSubmitBody builds the POST /api/report payload
func buildSubmitBody(sessionID string, data []byte, lineDelimited bool) ([]byte, error) {
	payload := map[string]interface{}{
		"sessionId": sessionID,
	}

	if !lineDelimited {
		if !json.Valid(data) {
			return nil, &internal.ValidationError{Field: "file", Msg: "file is not valid JSON"}
		}
		payload["sessionData"] = json.RawMessage(data)
		return json.Marshal(payload)
	}

	records, err := parseJSONLines(data)
	if err != nil {
		return nil, err
	}
	payload["sessionData"] = records
	payload["rawJsonl"] = string(data)
	return json.Marshal(payload)
}

// parseJSONLines decodes one JSON value per non-blank line
func parseJSONLines(data []byte) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), internal.DefaultMaxBodyBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, &internal.ValidationError{Field: "file", Msg: fmt.Sprintf("line %d is not valid JSON", lineNo)}
		}
		record := make(json.RawMessage, len(line))
		copy(record, line)
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return records, nil
}

// postReport sends body to the receiver and returns the new report id
func postReport(ctx context.Context, serverURL string, body []byte) (string, error) {
	url := strings.TrimSuffix(serverURL, "/") + "/api/report"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	internal.LogDebug("POST %s (%d bytes)", url, len(body))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out struct {
		Success  bool   `json:"success"`
		ReportID string `json:"reportId"`
		Error    string `json:"error"`
		Details  string `json:"details"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unexpected response (%s): %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	if resp.StatusCode != http.StatusCreated {
		msg := out.Error
		if out.Details != "" {
			msg += ": " + out.Details
		}
		return "", fmt.Errorf("receiver rejected report (%s): %s", resp.Status, msg)
	}
	return out.ReportID, nil
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitServer, "server", "http://localhost:3000", "Receiver base URL")
	submitCmd.Flags().StringVar(&submitSessionID, "session-id", "", "Session id (default: file name without extension)")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 30*time.Second, "Request timeout")
}
