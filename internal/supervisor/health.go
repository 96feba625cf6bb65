package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
}

// HTTPHealth polls url and succeeds on a 200 reply whose body is
// {"status":"ok"}. llama-server and whisper-server share this contract.
func HTTPHealth(client *http.Client, url string) HealthFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health: status %d: %s", resp.StatusCode, body)
		}

		var hr healthResponse
		if err := json.Unmarshal(body, &hr); err != nil {
			return fmt.Errorf("health: decode: %w", err)
		}
		if hr.Status != "ok" {
			return fmt.Errorf("health: status %q", hr.Status)
		}
		return nil
	}
}
