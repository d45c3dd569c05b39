package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"jobfinder/internal/model"
)

// OllamaProvider calls an Ollama-style /api/chat endpoint.
type OllamaProvider struct {
	baseURL     string
	model       string
	client      *http.Client // analysis budget: 30s connect, 80s total
	probeClient *http.Client // probe budget: 5s connect, 10s total
}

// NewOllamaProvider creates a provider for the endpoint at baseURL. Pass nil
// clients to get the default timeout budgets.
func NewOllamaProvider(baseURL, modelName string, client, probeClient *http.Client) *OllamaProvider {
	if client == nil {
		client = NewTimeoutClient(30*time.Second, 80*time.Second)
	}
	if probeClient == nil {
		probeClient = NewTimeoutClient(5*time.Second, 10*time.Second)
	}
	return &OllamaProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       modelName,
		client:      client,
		probeClient: probeClient,
	}
}

// NewTimeoutClient builds a client with separate connect and total budgets.
func NewTimeoutClient(connect, total time.Duration) *http.Client {
	return &http.Client{
		Timeout: total,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
			TLSHandshakeTimeout:   connect,
			ResponseHeaderTimeout: total,
		},
	}
}

// chatRequest mirrors the /api/chat request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse mirrors the relevant fields of the /api/chat response.
type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat sends prompt as a single user turn and returns the assistant content.
// Non-200 responses surface as *model.HTTPError so callers can distinguish
// them from timeouts.
func (p *OllamaProvider) Chat(ctx context.Context, prompt string) (string, error) {
	return p.send(ctx, p.client, prompt)
}

// Ping issues a minimal chat request under the probe budget.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	_, err := p.send(ctx, p.probeClient, "test")
	return err
}

func (p *OllamaProvider) send(ctx context.Context, client *http.Client, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := p.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("chat endpoint: %s", strings.TrimSpace(string(respBytes))),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("chat response has no message content")
	}
	return chatResp.Message.Content, nil
}
