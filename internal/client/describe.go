package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"studydesk/internal/infer"
)

var errEmptyDescription = errors.New("empty description")

// Describer asks the description service for a suggestion and falls back to
// the local templates whenever that fails.
type Describer struct {
	url   string
	token string
	http  *http.Client
	cb    *gobreaker.CircuitBreaker
	log   logrus.FieldLogger
}

// NewDescriber calls endpoint through a circuit breaker. An empty endpoint
// always uses the local templates.
func NewDescriber(endpoint, token string, timeout time.Duration, log logrus.FieldLogger) *Describer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Describer{
		url:   endpoint,
		token: token,
		http:  &http.Client{Timeout: timeout},
		log:   log,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "describe-cb",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Info("circuit breaker state changed")
			},
		}),
	}
}

// Describe never fails: any error yields the local template.
func (d *Describer) Describe(ctx context.Context, title string) string {
	if d.url == "" {
		return infer.Describe(title)
	}
	res, err := d.cb.Execute(func() (interface{}, error) {
		return d.fetch(ctx, title)
	})
	if err != nil {
		d.log.WithError(err).Warn("description service unavailable, using local template")
		return infer.Describe(title)
	}
	return res.(string)
}

func (d *Describer) fetch(ctx context.Context, title string) (string, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apiError(resp.StatusCode, data)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("invalid JSON from description service")
	}
	if msg := gjson.GetBytes(data, "error").String(); msg != "" {
		return "", &APIError{Status: resp.StatusCode, Message: msg}
	}
	desc := strings.TrimSpace(gjson.GetBytes(data, "description").String())
	if desc == "" {
		return "", errEmptyDescription
	}
	return desc, nil
}
