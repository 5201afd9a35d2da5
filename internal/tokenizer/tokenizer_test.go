package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"simple lowercase", "hello world", []string{"hello", "world"}},
		{"with punctuation", "Hello, World! This is a test.", []string{"hello", "world", "this", "test"}},
		{"with numbers", "item123 test", []string{"item123", "test"}},
		{"leading/trailing spaces", "  hello world  ", []string{"hello", "world"}},
		{"short tokens dropped", "go is ok but rust", []string{"but", "rust"}},
		{"string with hyphen", "state-of-the-art", []string{"state", "the", "art"}},
		{"underscore is a word character", "my_variable_name", []string{"my_variable_name"}},
		{"all caps word", "HELLO WORLD", []string{"hello", "world"}},
		{"url-like text", "doc.rust-lang.org", []string{"doc", "rust", "lang", "org"}},
		{"duplicates preserved", "rust rust", []string{"rust", "rust"}},
		{"only symbols", "!@#$%^", []string{}},
		{"non-ascii letters are separators", "café crème", []string{"caf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateSubstringNGrams(t *testing.T) {
	tests := []struct {
		name  string
		token string
		n     int
		want  []string
	}{
		{"shorter than n", "ab", 3, []string{}},
		{"exactly n", "abc", 3, []string{"abc"}},
		{"trigrams", "crawl", 3, []string{"cra", "raw", "awl"}},
		{"four-grams", "crawl", 4, []string{"craw", "rawl"}},
		{"zero n", "crawl", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSubstringNGrams(tt.token, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GenerateSubstringNGrams(%q, %d) = %v, want %v", tt.token, tt.n, got, tt.want)
			}
		})
	}
}

func TestGeneratePrefixes(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{"too short", "abc", []string{}},
		{"exact length", "rust", []string{"rust"}},
		{"longer token", "search", []string{"sear", "searc", "search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeneratePrefixes(tt.token, 4)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GeneratePrefixes(%q, 4) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestTokenizeFuzzy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"three letter token has no expansion", "abc", []string{"abc"}},
		{"four letter token", "Rust", []string{"rust", "rus", "ust"}},
		{"long token", "crawl4ai", []string{
			"crawl4ai",
			"cra", "raw", "awl", "wl4", "l4a", "4ai",
			"craw", "rawl", "awl4", "wl4a", "l4ai",
			"crawl", "crawl4", "crawl4a",
		}},
		{"duplicate tokens", "rust rust", []string{"rust", "rus", "ust"}},
		{"base tokens first", "rust web", []string{"rust", "web", "rus", "ust"}},
		{"empty after tokenize", "!@ a b", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenizeFuzzy(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TokenizeFuzzy(%q): got %v (len %d), want %v (len %d)",
					tt.input, got, len(got), tt.want, len(tt.want))
			}
		})
	}
}

func TestTokenizeFuzzy_Deterministic(t *testing.T) {
	inputs := []string{
		"Rust Programming Guide",
		"GitHub Crawl4AI web crawler for LLMs",
		"   ",
		"Chocolate Chip Cookie Recipe!!!",
	}

	for _, input := range inputs {
		first := TokenizeFuzzy(input)
		second := TokenizeFuzzy(input)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("TokenizeFuzzy(%q) not deterministic: %v vs %v", input, first, second)
		}

		seen := make(map[string]bool)
		for _, token := range first {
			if token != strings.ToLower(token) {
				t.Errorf("token %q is not lowercase", token)
			}
			if len(token) < MinTokenLength {
				t.Errorf("token %q is shorter than %d", token, MinTokenLength)
			}
			if seen[token] {
				t.Errorf("token %q appears twice", token)
			}
			seen[token] = true
		}
	}
}

func TestClusterTokenizer(t *testing.T) {
	tests := []struct {
		name  string
		stem  bool
		input string
		want  []string
	}{
		{"stop words removed", false, "The Rust Book for Systems Programming", []string{"rust", "book", "systems", "programming"}},
		{"auxiliary verbs removed", false, "this should have been done", []string{"this", "done"}},
		{"duplicates kept", false, "github github.com", []string{"github", "github", "com"}},
		{"only stop words", false, "the and for with", []string{}},
		{"stemming enabled", true, "Systems Programming", []string{"system", "program"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClusterTokenizer(tt.stem).Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ClusterTokenizer.Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClusterTokenizer_IsStopWord(t *testing.T) {
	tok := NewClusterTokenizer(false)
	if !tok.IsStopWord("The") {
		t.Error("expected 'The' to be a stop word")
	}
	if tok.IsStopWord("rust") {
		t.Error("did not expect 'rust' to be a stop word")
	}
}
