// Package gemini opens live sessions on the Gemini Live API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/koscakluka/ema-live/core/live"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultModel      = "models/gemini-live-2.5-flash-preview"
	DefaultAPIVersion = "v1beta"
	DefaultVoice      = "Zephyr"
)

type Connector struct {
	client *genai.Client
}

type connectorOptions struct {
	apiVersion string
	httpClient *http.Client
	baseURL    string
}

type ConnectorOption func(*connectorOptions)

func WithAPIVersion(version string) ConnectorOption {
	return func(o *connectorOptions) { o.apiVersion = version }
}

func WithHTTPClient(client *http.Client) ConnectorOption {
	return func(o *connectorOptions) { o.httpClient = client }
}

func WithBaseURL(baseURL string) ConnectorOption {
	return func(o *connectorOptions) { o.baseURL = baseURL }
}

func NewConnector(ctx context.Context, apiKey string, opts ...ConnectorOption) (*Connector, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	options := connectorOptions{apiVersion: DefaultAPIVersion}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: options.httpClient,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: options.apiVersion,
			BaseURL:    options.baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Connector{client: client}, nil
}

func (c *Connector) Connect(ctx context.Context, config live.Config) (live.Session, error) {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	ctx, span := tracer.Start(ctx, "connect live session")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", model), attribute.Int("gemini.tools", len(config.Tools)))

	connectConfig, err := liveConnectConfig(config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	session, err := c.client.Live.Connect(ctx, model, connectConfig)
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %w", model, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	logger.Info("live session connected", "model", model, "voice", config.Voice)

	return newSession(session, config.InputMIMEType), nil
}
