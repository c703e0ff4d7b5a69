// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package bedrock implements the embedding strategy for Amazon Bedrock
// Titan embedding models.
package bedrock

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/poiesic/vectorline/ai"
	"github.com/poiesic/vectorline/config"
)

const defaultRegion = "us-east-1"

// RuntimeClient is the subset of the Bedrock runtime API the strategy
// uses. Tests substitute a fake.
type RuntimeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Strategy implements ai.EmbeddingStrategy using Bedrock Titan models.
// Titan embedding endpoints take one text per invocation, so a batch is
// a sequence of InvokeModel calls in input order.
type Strategy struct {
	mu      sync.Mutex
	clients map[string]RuntimeClient
	logger  *slog.Logger

	// newClient is swapped out in tests.
	newClient func(ctx context.Context, cfg *config.EmbeddingConfig) (RuntimeClient, error)
}

var _ ai.EmbeddingStrategy = (*Strategy)(nil)

// New creates the Bedrock embedding strategy.
func New() *Strategy {
	return &Strategy{
		clients:   make(map[string]RuntimeClient),
		logger:    slog.Default().With("component", "bedrock-embedder"),
		newClient: newRuntimeClient,
	}
}

// Name returns the strategy identifier.
func (s *Strategy) Name() string {
	return "bedrock"
}

// titanRequest is the Titan embedding request body.
type titanRequest struct {
	InputText string `json:"inputText"`
}

// titanResponse is the Titan embedding response body.
type titanResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates one embedding per text, invoking the model once per text.
func (s *Strategy) Embed(ctx context.Context, texts []string, cfg *config.EmbeddingConfig) ([][]float32, error) {
	client, err := s.clientFor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body, err := json.Marshal(titanRequest{InputText: text})
		if err != nil {
			return nil, err
		}

		output, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(cfg.Model),
			Body:        body,
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			s.logger.Error("invoke model failed", "model", cfg.Model, "err", err)
			return nil, err
		}

		var resp titanResponse
		if err := json.Unmarshal(output.Body, &resp); err != nil {
			return nil, err
		}
		vectors = append(vectors, resp.Embedding)
	}
	return vectors, nil
}

// clientFor returns a cached runtime client for the config's region.
func (s *Strategy) clientFor(ctx context.Context, cfg *config.EmbeddingConfig) (RuntimeClient, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if client, ok := s.clients[region]; ok {
		return client, nil
	}

	client, err := s.newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.clients[region] = client
	return client, nil
}

// newRuntimeClient builds a real Bedrock runtime client. When the config
// carries an "accessKeyID:secretAccessKey" credential it is used directly,
// otherwise the default AWS credential chain applies.
func newRuntimeClient(ctx context.Context, cfg *config.EmbeddingConfig) (RuntimeClient, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if id, secret, ok := strings.Cut(cfg.APIKey, ":"); ok {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
