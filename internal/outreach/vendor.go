package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/employment-verifier/internal/types"
)

// vendorTimeout bounds each vendor API call. Call completion is handled by
// the poller, not here.
const vendorTimeout = 15 * time.Second

// VoiceVendor is a PhoneCaller backed by a voice-agent provider's REST API.
type VoiceVendor struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewVoiceVendor creates a voice-agent client. baseURL points at the API
// root, e.g. https://api.voiceagent.example/v1.
func NewVoiceVendor(baseURL, apiKey string) *VoiceVendor {
	return &VoiceVendor{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: vendorTimeout},
	}
}

type placeCallRequest struct {
	Number        string `json:"number"`
	CandidateName string `json:"candidate_name"`
	Employer      string `json:"employer"`
	JobTitle      string `json:"job_title,omitempty"`
}

type placeCallResponse struct {
	CallID string `json:"call_id"`
}

// PlaceCall implements PhoneCaller.
func (v *VoiceVendor) PlaceCall(ctx context.Context, number string, vars CallVariables) (string, error) {
	payload, err := json.Marshal(placeCallRequest{
		Number:        number,
		CandidateName: vars.CandidateName,
		Employer:      vars.Employer,
		JobTitle:      vars.JobTitle,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode call request: %w", err)
	}

	body, err := v.post(ctx, v.baseURL+"/calls", payload)
	if err != nil {
		return "", err
	}

	var parsed placeCallResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}
	if parsed.CallID == "" {
		return "", fmt.Errorf("voice vendor returned no call ID")
	}
	return parsed.CallID, nil
}

// GetResult implements PhoneCaller. The vendor reports status and, once the
// call ends, the structured outcome from the agent script.
func (v *VoiceVendor) GetResult(ctx context.Context, callID string) (*types.CallResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/calls/"+callID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build result request: %w", err)
	}
	v.authorize(req)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("voice vendor returned %d: %s", resp.StatusCode, string(body))
	}

	var result types.CallResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode call result: %w", err)
	}
	return &result, nil
}

func (v *VoiceVendor) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build vendor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	v.authorize(req)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vendor returned %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (v *VoiceVendor) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
}

// EmailVendor is an Emailer backed by a transactional email provider's REST
// API. The reply token rides in the Reply-To address.
type EmailVendor struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

// NewEmailVendor creates a transactional email client.
func NewEmailVendor(baseURL, apiKey, from string) *EmailVendor {
	return &EmailVendor{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: vendorTimeout},
	}
}

type sendEmailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send implements Emailer.
func (v *EmailVendor) Send(ctx context.Context, to, subject, body, replyToken string) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:    v.from,
		To:      to,
		ReplyTo: ReplyAddress(replyToken),
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email vendor returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
