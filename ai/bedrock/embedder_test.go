package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vectorline/config"
)

// fakeRuntime echoes a vector derived from the input text length so tests
// can check ordering.
type fakeRuntime struct {
	invokeFunc func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	calls      int
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	return f.invokeFunc(ctx, params, optFns...)
}

func newTestStrategy(client RuntimeClient) *Strategy {
	s := New()
	s.newClient = func(ctx context.Context, cfg *config.EmbeddingConfig) (RuntimeClient, error) {
		return client, nil
	}
	return s
}

func titanEcho(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	var req titanRequest
	if err := json.Unmarshal(params.Body, &req); err != nil {
		return nil, err
	}
	body, err := json.Marshal(titanResponse{Embedding: []float32{float32(len(req.InputText))}})
	if err != nil {
		return nil, err
	}
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func TestEmbedOrdering(t *testing.T) {
	client := &fakeRuntime{invokeFunc: titanEcho}
	strategy := newTestStrategy(client)

	cfg := config.DefaultEmbeddingConfig()
	cfg.Strategy = "bedrock"
	cfg.Model = "amazon.titan-embed-text-v2:0"

	vectors, err := strategy.Embed(context.Background(), []string{"a", "bb", "ccc"}, &cfg)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
	assert.Equal(t, 3, client.calls)
}

func TestEmbedFailsWholeBatch(t *testing.T) {
	boom := errors.New("throttled")
	client := &fakeRuntime{
		invokeFunc: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			return nil, boom
		},
	}
	strategy := newTestStrategy(client)

	cfg := config.DefaultEmbeddingConfig()
	cfg.Strategy = "bedrock"
	cfg.Model = "amazon.titan-embed-text-v2:0"

	vectors, err := strategy.Embed(context.Background(), []string{"a", "b"}, &cfg)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, vectors)
	assert.Equal(t, 1, client.calls)
}

func TestClientCachedPerRegion(t *testing.T) {
	created := 0
	strategy := New()
	strategy.newClient = func(ctx context.Context, cfg *config.EmbeddingConfig) (RuntimeClient, error) {
		created++
		return &fakeRuntime{invokeFunc: titanEcho}, nil
	}

	cfg := config.DefaultEmbeddingConfig()
	cfg.Strategy = "bedrock"
	cfg.Model = "amazon.titan-embed-text-v2:0"
	cfg.Region = "eu-west-1"

	_, err := strategy.Embed(context.Background(), []string{"a"}, &cfg)
	require.NoError(t, err)
	_, err = strategy.Embed(context.Background(), []string{"b"}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
