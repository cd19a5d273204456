// AWS Bedrock Provider implementation using aws-sdk-go-v2 bedrockruntime.
//
// Information Hiding:
// - Static credential wiring and region selection
// - Anthropic-on-Bedrock JSON envelope and binary response decoding
// - Cross-region inference model id rewriting
// - AWS error code classification

package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

const (
	bedrockAnthropicVersion = "bedrock-2023-05-31"
	bedrockContentType      = "application/json"

	// claudeCharsPerToken approximates Claude tokenization.
	claudeCharsPerToken = 3.5

	// probeMaxTokens bounds the connectivity probe's output.
	probeMaxTokens = 10
	probePrompt    = "Hi"
)

// BedrockInvoker abstracts the Bedrock InvokeModel call for testing.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// newBedrockClient builds a runtime client from static credentials. Retries
// are disabled so failures surface on the first attempt.
func newBedrockClient(region string, creds Credentials) BedrockInvoker {
	return bedrockruntime.New(bedrockruntime.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
		Retryer: aws.NopRetryer{},
	})
}

// BedrockProvider implements the Provider interface for Claude on AWS Bedrock.
type BedrockProvider struct {
	adapterBase
	region                  string
	useCrossRegionInference bool
	creds                   Credentials
	client                  BedrockInvoker
	newClient               func(region string, creds Credentials) BedrockInvoker
}

// NewBedrockProvider creates a Bedrock provider. It never touches the network;
// call Initialize with AWS credentials before use.
func NewBedrockProvider(cfg Config, opts ...Option) *BedrockProvider {
	model := cfg.Model
	if model == "" {
		model = ProviderBedrock.DefaultModel()
	}
	region := cfg.Region
	if region == "" {
		region = DefaultBedrockRegion
	}

	return &BedrockProvider{
		adapterBase:             newAdapterBase(ProviderBedrock.String(), model, claudeCharsPerToken, opts),
		region:                  region,
		useCrossRegionInference: cfg.UseCrossRegionInference,
		newClient:               newBedrockClient,
	}
}

// Region returns the AWS region requests are sent to.
func (p *BedrockProvider) Region() string {
	return p.region
}

// CrossRegionInference reports whether model ids are routed through the
// cross-region inference profile.
func (p *BedrockProvider) CrossRegionInference() bool {
	return p.useCrossRegionInference
}

// Initialize validates AWS credentials, builds the runtime client and sends
// a minimal request to confirm access to the selected model.
func (p *BedrockProvider) Initialize(ctx context.Context, creds Credentials) error {
	if creds.IsZero() {
		return configError(p.name, "", "AWS credentials are required for Bedrock provider")
	}
	// The factory may have been bypassed, so the format is checked here too.
	if err := checkBedrockCredentials(creds); err != nil {
		return err
	}

	p.initialized = false
	p.client = nil
	p.creds = creds
	region := p.region
	if creds.Region != "" {
		region = creds.Region
	}

	client := p.newClient(region, p.creds)
	modelID := p.modelID("")
	p.logger.Debug("probing provider", "model", modelID, "region", region)

	probe := bedrockRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        probeMaxTokens,
		Messages:         []ChatMessage{UserMessage(probePrompt)},
	}
	if _, err := p.invoke(ctx, client, modelID, probe); err != nil {
		p.logger.Debug("probe failed", "error", err)
		return classifyBedrockError(phaseProbe, err)
	}

	p.region = region
	p.client = client
	p.initialized = true
	p.logger.Debug("provider initialized", "model", modelID, "region", region)
	return nil
}

// Chat sends one InvokeModel request.
func (p *BedrockProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error) {
	if err := p.requireInitialized(); err != nil {
		return ChatResult{}, err
	}

	system, conversation := splitSystem(messages)
	formatted := make([]ChatMessage, len(conversation))
	for i, msg := range conversation {
		formatted[i] = ChatMessage{Role: normalizeRole(msg.Role), Content: msg.Content}
	}

	temperature := opts.temperature()
	req := bedrockRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        opts.maxTokens(),
		Temperature:      &temperature,
		System:           system,
		Messages:         formatted,
	}

	modelID := p.modelID(opts.Model)
	p.logger.Debug("chat request", "model", modelID, "messages", len(formatted))

	out, err := p.invoke(ctx, p.client, modelID, req)
	if err != nil {
		return ChatResult{}, classifyBedrockError(phaseCall, err)
	}
	return decodeBedrockResponse(p.name, out.Body)
}

// ProcessMemo extracts a structured memo from content.
func (p *BedrockProvider) ProcessMemo(ctx context.Context, content string, opts ChatOptions) (MemoResult, error) {
	return processMemo(ctx, &p.adapterBase, p.Chat, content, opts)
}

// AvailableModels returns the Bedrock model ids, rewritten for cross-region
// inference when that is enabled.
func (p *BedrockProvider) AvailableModels() []string {
	if p.useCrossRegionInference {
		return crossRegionModelIDs(bedrockModels)
	}
	return clone(bedrockModels)
}

// CrossRegionModels returns the cross-region inference profile ids.
func (p *BedrockProvider) CrossRegionModels() []string {
	return crossRegionModelIDs(bedrockModels)
}

// AvailableRegions returns the supported AWS regions.
func (p *BedrockProvider) AvailableRegions() []string {
	return clone(bedrockRegions)
}

// ProviderInfo returns the catalog entry with this instance's model list.
func (p *BedrockProvider) ProviderInfo() ProviderDescriptor {
	info := bedrockDescriptor()
	info.Models = p.AvailableModels()
	return info
}

// ValidateConfig checks credentials, and region and model membership when set.
func (p *BedrockProvider) ValidateConfig(cfg Config) bool {
	return validateInstanceConfig(checkBedrockCredentials, cfg, p.AvailableModels(), bedrockRegions)
}

// AuthMethod describes one way to supply AWS credentials to the provider.
type AuthMethod struct {
	Method      string `json:"method"`
	Description string `json:"description"`
	Recommended bool   `json:"recommended"`
	Warning     string `json:"warning,omitempty"`
}

// AuthMethods lists credential sources in order of preference. Static keys
// work but should be short-lived (ASIA) whenever they leave a server.
func (p *BedrockProvider) AuthMethods() []AuthMethod {
	return []AuthMethod{
		{
			Method:      "cognito-identity",
			Description: "AWS Cognito Identity Pools issuing temporary credentials",
			Recommended: true,
		},
		{
			Method:      "sts-assume-role",
			Description: "AWS STS AssumeRole via a backend that hands out temporary credentials",
			Recommended: true,
		},
		{
			Method:      "direct-credentials",
			Description: "Static access key and secret",
			Warning:     "long-lived keys exposed to a client can be extracted; prefer a server-side proxy",
		},
	}
}

// modelID resolves the id sent to Bedrock for an optional per-call override.
func (p *BedrockProvider) modelID(override string) string {
	model := override
	if model == "" {
		model = p.model
	}
	if p.useCrossRegionInference {
		return crossRegionModelID(model)
	}
	return model
}

func (p *BedrockProvider) invoke(ctx context.Context, client BedrockInvoker, modelID string, req bedrockRequest) (*bedrockruntime.InvokeModelOutput, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String(bedrockContentType),
		Accept:      aws.String(bedrockContentType),
		Body:        body,
	})
}

// bedrockRequest is the Anthropic Messages envelope Bedrock expects.
type bedrockRequest struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      *float64      `json:"temperature,omitempty"`
	System           string        `json:"system,omitempty"`
	Messages         []ChatMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// decodeBedrockResponse parses the binary response body. Usage is optional.
func decodeBedrockResponse(provider string, body []byte) (ChatResult, error) {
	var resp bedrockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ChatResult{}, parseError(provider, "Failed to decode Bedrock response body", err)
	}
	if len(resp.Content) == 0 {
		return ChatResult{}, parseError(provider, "Bedrock response contained no content", nil)
	}

	var usage Usage
	if resp.Usage != nil {
		usage = newUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	return ChatResult{
		Success: true,
		Reply:   resp.Content[0].Text,
		Usage:   usage,
	}, nil
}

// bedrockErrorCategories maps AWS error codes onto categories. Codes not
// listed fall into CategoryUnknown.
var bedrockErrorCategories = map[string]Category{
	"AccessDeniedException":         CategoryAccessDenied,
	"AccessDeniedError":             CategoryAccessDenied,
	"UnrecognizedClientException":   CategoryAccessDenied,
	"InvalidSignatureException":     CategoryAccessDenied,
	"ExpiredTokenException":         CategoryAccessDenied,
	"ValidationException":           CategoryValidation,
	"ResourceNotFoundException":     CategoryValidation,
	"ServiceUnavailableException":   CategoryServiceUnavailable,
	"ModelNotReadyException":        CategoryServiceUnavailable,
	"InternalServerException":       CategoryServiceUnavailable,
	"ThrottlingException":           CategoryThrottling,
	"TooManyRequestsException":      CategoryThrottling,
	"ServiceQuotaExceededException": CategoryThrottling,
}

var bedrockProbeMessages = map[Category]string{
	CategoryAccessDenied:       "AWS credentials do not have permission to access Bedrock",
	CategoryValidation:         "Invalid model ID or request format",
	CategoryServiceUnavailable: "Bedrock service is currently unavailable",
	CategoryThrottling:         "Bedrock API rate limit exceeded",
	CategoryUnknown:            "Bedrock connection test failed",
}

var bedrockCallMessages = map[Category]string{
	CategoryAccessDenied:       "AWS credentials do not have permission to access this Bedrock model",
	CategoryValidation:         "Invalid request format or model parameters",
	CategoryServiceUnavailable: "Bedrock service is currently unavailable",
	CategoryThrottling:         "Bedrock API rate limit exceeded",
	CategoryUnknown:            "Bedrock API error",
}

// classifyBedrockError converts an SDK error into a *Error. The original
// error stays wrapped so its message is never lost.
func classifyBedrockError(ph phase, err error) *Error {
	var code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	category, ok := bedrockErrorCategories[code]
	if !ok {
		category = CategoryUnknown
	}

	messages := bedrockCallMessages
	if ph == phaseProbe {
		messages = bedrockProbeMessages
	}
	msg := messages[category]
	if ph == phaseCall && code == "ServiceQuotaExceededException" {
		msg = "Bedrock service quota exceeded"
	}

	return vendorError(ProviderBedrock.String(), ph, category, msg, err)
}

// Verify BedrockProvider implements RegionalProvider
var _ RegionalProvider = (*BedrockProvider)(nil)
