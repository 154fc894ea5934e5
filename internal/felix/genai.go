package felix

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Embedder turns texts into embedding vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator answers a text prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAI is a Gemini client for embeddings and text generation
type GenAI struct {
	client         *genai.Client
	embeddingModel string
	model          string
}

// NewGenAI creates a Gemini client
func NewGenAI(ctx context.Context, apiKey, embeddingModel, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{client: client, embeddingModel: embeddingModel, model: model}, nil
}

// Embed returns one embedding per text
func (g *GenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := g.client.Models.EmbedContent(ctx,
		g.embeddingModel,
		contents,
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("GenAI returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Generate returns the model's text response to a prompt
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// reference is a role and a canonical description of it
type reference struct {
	role        Role
	description string
}

var references = []reference{
	{Promoter, "DNA sequence that initiates transcription of a particular gene"},
	{Promoter, "CMV EF1a U6 CAG promoter high level expression"},
	{Terminator, "sequence that marks the end of a gene or operon in genomic DNA"},
	{RecombinaseSite, "LoxP Lox2272 FRT site for site specific recombination"},
	{Structural, "Inverted Terminal Repeat ITR for viral packaging"},
	{Origin, "Origin of replication pBR322 ori f1 high copy number"},
	{RBS, "Ribosome binding site Kozak sequence translation initiation"},
	{Verification, "PCR primer binding site sequencing verification probe"},
	{CDS, "Protein coding sequence gene open reading frame"},
	{SelectionMarker, "Antibiotic resistance gene AmpR KanR selection marker"},
	{Enhancer, "Enhancer element WPRE that increases transcription"},
	{Insulator, "Chromatin insulator HS4 boundary element"},
	{NonCodingRNA, "Guide RNA sgRNA shRNA non coding RNA scaffold"},
	{ProteinTag, "Epitope tag His FLAG HA Myc fused to a protein"},
}

// EmbeddingClassifier assigns the role of the nearest reference description
type EmbeddingClassifier struct {
	embedder Embedder

	mu      sync.Mutex
	vectors [][]float32
}

// NewEmbeddingClassifier returns a classifier that embeds the reference descriptions on first use
func NewEmbeddingClassifier(e Embedder) *EmbeddingClassifier {
	return &EmbeddingClassifier{embedder: e}
}

// index embeds the references once. A failure is retried on the next call.
func (c *EmbeddingClassifier) index(ctx context.Context) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vectors != nil {
		return c.vectors, nil
	}

	descriptions := make([]string, len(references))
	for i, ref := range references {
		descriptions[i] = ref.description
	}
	vectors, err := c.embedder.Embed(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to embed reference descriptions: %w", err)
	}
	if len(vectors) != len(references) {
		return nil, fmt.Errorf("expected %d reference embeddings, got %d", len(references), len(vectors))
	}

	c.vectors = vectors
	return vectors, nil
}

// Classify returns the role of the nearest reference and a confidence of 1 / (1 + d),
// d being the squared euclidean distance to it
func (c *EmbeddingClassifier) Classify(ctx context.Context, d Descriptor) (Role, float64, error) {
	vectors, err := c.index(ctx)
	if err != nil {
		return Unknown, 0, err
	}

	query, err := c.embedder.Embed(ctx, []string{d.Text()})
	if err != nil {
		return Unknown, 0, err
	}
	if len(query) != 1 {
		return Unknown, 0, fmt.Errorf("expected 1 embedding, got %d", len(query))
	}

	nearest, best := -1, math.Inf(1)
	for i, v := range vectors {
		dist, err := squaredDistance(query[0], v)
		if err != nil {
			return Unknown, 0, err
		}
		if dist < best {
			nearest, best = i, dist
		}
	}

	return references[nearest].role, round(1/(1+best), 2), nil
}

func squaredDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d != %d", len(a), len(b))
	}
	sum := 0.0
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum, nil
}

// LLMEscalator asks a language model for a part's roles
type LLMEscalator struct {
	generator  Generator
	confidence float64
}

// NewLLMEscalator returns an escalator that reports a fixed confidence in the model's answer
func NewLLMEscalator(g Generator, confidence float64) *LLMEscalator {
	return &LLMEscalator{generator: g, confidence: confidence}
}

// Escalate prompts for a comma-separated role list. Names that aren't roles are dropped.
func (e *LLMEscalator) Escalate(ctx context.Context, d Descriptor) ([]Role, float64, error) {
	answer, err := e.generator.Generate(ctx, escalationPrompt(d))
	if err != nil {
		return nil, 0, err
	}

	roles := []Role{}
	seen := make(map[Role]bool)
	for _, name := range strings.Split(answer, ",") {
		name = strings.Trim(strings.TrimSpace(name), "`'\".[]")
		role, err := ParseRole(name)
		if err != nil || role == Unknown || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, 0, fmt.Errorf("no roles in response %q", answer)
	}

	return roles, e.confidence, nil
}

// escalationPrompt includes up to the first 200bp of the sequence
func escalationPrompt(d Descriptor) string {
	names := []string{}
	for _, r := range Roles() {
		if r != Unknown {
			names = append(names, r.String())
		}
	}

	seq := d.Sequence
	if len(seq) > 200 {
		seq = seq[:200]
	}

	return fmt.Sprintf(`Act as a computational biologist. Analyze this DNA part metadata and
assign one or more roles from this list: %s.
Metadata: %s, %dbp
Sequence: %s
Return ONLY a comma-separated list of roles.`, strings.Join(names, ", "), d.Text(), d.Length, seq)
}
