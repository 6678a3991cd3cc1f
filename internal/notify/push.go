package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"fitsight/coaching-app/internal/config"
	"fitsight/coaching-app/internal/repository"
)

var ErrNoSubscriptions = errors.New("client has no push subscriptions")

// pushDispatcher delivers notifications through an HTTP push gateway, one
// POST per registered device endpoint.
type pushDispatcher struct {
	gatewayURL string
	apiKey     string
	subRepo    repository.PushSubscriptionRepository
	httpClient *http.Client
}

// NewPushDispatcher creates a Dispatcher backed by the configured push gateway.
func NewPushDispatcher(cfg config.PushConfig, subRepo repository.PushSubscriptionRepository) Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &pushDispatcher{
		gatewayURL: cfg.GatewayURL,
		apiKey:     cfg.APIKey,
		subRepo:    subRepo,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pushPayload struct {
	Endpoint string `json:"endpoint"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Tag      string `json:"tag"`
}

// Dispatch posts the notification to every subscription the client holds.
// Endpoints the gateway reports as gone are pruned so they are not retried.
// Success means at least one device accepted the notification.
func (d *pushDispatcher) Dispatch(ctx context.Context, n Notification) error {
	subs, err := d.subRepo.GetByClientID(ctx, n.ClientID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	delivered := 0
	var lastErr error
	for i := range subs {
		err := d.send(ctx, subs[i].Endpoint, n)
		if err == nil {
			delivered++
			continue
		}

		if isGone(err) {
			// Expired endpoint: remove it and move on.
			log.Printf("push subscription %s for client %s expired, removing", subs[i].ID.Hex(), n.ClientID.Hex())
			if delErr := d.subRepo.Delete(ctx, subs[i].ID); delErr != nil {
				log.Printf("WARN: failed to remove expired subscription %s: %v", subs[i].ID.Hex(), delErr)
			}
		}
		lastErr = err
	}

	if delivered == 0 {
		if lastErr != nil {
			return lastErr
		}
		return ErrNoSubscriptions
	}
	return nil
}

// goneError marks an endpoint the gateway says no longer exists.
type goneError struct {
	status int
}

func (e *goneError) Error() string {
	return fmt.Sprintf("push endpoint gone (status %d)", e.status)
}

func isGone(err error) bool {
	var ge *goneError
	return errors.As(err, &ge)
}

func (d *pushDispatcher) send(ctx context.Context, endpoint string, n Notification) error {
	payload := pushPayload{
		Endpoint: endpoint,
		Title:    n.Title,
		Message:  n.Message,
		Tag:      string(n.ReminderType),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.gatewayURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return &goneError{status: resp.StatusCode}
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push gateway error (status %d): %s", resp.StatusCode, string(body))
	}
}
