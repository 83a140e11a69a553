package classifier

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Vectorizer turns text into a sparse TF-IDF vector over a fixed vocabulary.
// Its fields mirror the vectorizer artifact file.
type Vectorizer struct {
	Lowercase   bool           `yaml:"lowercase"`
	StripHTML   bool           `yaml:"strip_html"`
	NgramRange  []int          `yaml:"ngram_range"`
	StopWords   []string       `yaml:"stop_words"`
	Vocabulary  map[string]int `yaml:"vocabulary"`
	IDF         []float64      `yaml:"idf"`
	SublinearTF bool           `yaml:"sublinear_tf"`
	Norm        string         `yaml:"norm"`

	stop map[string]bool
}

// blockTags get a trailing space before text extraction so adjacent
// elements don't merge into one token.
const blockTags = "p, div, li, br, tr, td, th, h1, h2, h3, h4, h5, h6, ul, ol, section, article"

func (v *Vectorizer) validate() error {
	if len(v.Vocabulary) == 0 {
		return errors.New("vocabulary is empty")
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return fmt.Errorf("idf has %d entries, vocabulary has %d", len(v.IDF), len(v.Vocabulary))
	}

	cols := make(map[int]string, len(v.Vocabulary))
	for term, col := range v.Vocabulary {
		if col < 0 || col >= len(v.IDF) {
			return fmt.Errorf("term %q: column %d out of range", term, col)
		}
		if other, dup := cols[col]; dup {
			return fmt.Errorf("terms %q and %q share column %d", other, term, col)
		}
		cols[col] = term
	}

	switch len(v.NgramRange) {
	case 0:
		v.NgramRange = []int{1, 1}
	case 2:
		if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
			return fmt.Errorf("invalid ngram_range %v", v.NgramRange)
		}
	default:
		return fmt.Errorf("ngram_range must have 2 entries, got %d", len(v.NgramRange))
	}

	switch v.Norm {
	case "":
		v.Norm = "l2"
	case "l2", "none":
	default:
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}

	v.stop = make(map[string]bool, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[w] = true
	}
	return nil
}

// Features returns the number of columns in the output vector.
func (v *Vectorizer) Features() int { return len(v.IDF) }

// Transform returns the weighted vector for text, keyed by column.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, term := range v.terms(text) {
		if col, ok := v.Vocabulary[term]; ok {
			counts[col]++
		}
	}

	var sumSq float64
	for col, tf := range counts {
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.IDF[col]
		counts[col] = w
		sumSq += w * w
	}

	if v.Norm == "l2" && sumSq > 0 {
		n := math.Sqrt(sumSq)
		for col := range counts {
			counts[col] /= n
		}
	}
	return counts
}

// terms returns all n-grams of text in the configured range.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenize(v.normalize(text))

	var out []string
	for n := v.NgramRange[0]; n <= v.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func (v *Vectorizer) normalize(text string) string {
	if v.StripHTML && looksLikeHTML(text) {
		text = htmlText(text)
	}
	text = norm.NFKC.String(text)
	if v.Lowercase {
		text = cases.Fold().String(text)
	}
	return text
}

// tokenize splits on anything that is not a letter, digit or underscore and
// keeps tokens of two or more runes that are not stop words.
func (v *Vectorizer) tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || v.stop[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func looksLikeHTML(text string) bool {
	i := strings.IndexByte(text, '<')
	return i >= 0 && strings.IndexByte(text[i:], '>') > 0
}

// htmlText extracts visible text from an HTML fragment. On parse failure the
// input is returned unchanged.
func htmlText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("script, style").Remove()
	doc.Find(blockTags).AfterHtml(" ")
	return doc.Text()
}
