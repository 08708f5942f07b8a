package search

import (
	"reflect"
	"sync"
	"testing"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// ---------- helpers ----------
func queue() []domain.Document {
	return []domain.Document{
		{Type: domain.DocumentImport, ID: 1, Code: "PN-0012", Partner: domain.Partner{Name: "Công ty Đình Phát", Code: "NCC01"}},
		{Type: domain.DocumentInvoice, ID: 2, Code: "PX-0040", Partner: domain.Partner{Name: "Nguyễn Văn Bình", Code: "KH09"},
			Items: []domain.LineItem{{ProductName: "Ốc vít inox", ProductCode: "VIT-6"}}},
		{Type: domain.DocumentReturn, ID: 3, Code: "PT-0003", Note: "Hàng lỗi, trả lại", CreatedBy: "Trần Lan"},
	}
}

func keys(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Key().String()
	}
	return out
}

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minPrefixRunes != 2 || def.stopwords != nil {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}
	cfg := def
	WithMinPrefixRunes(3)(&cfg)
	WithMinPrefixRunes(0)(&cfg) // no-op
	if cfg.minPrefixRunes != 3 {
		t.Fatalf("WithMinPrefixRunes failed: %d", cfg.minPrefixRunes)
	}
	WithStopwords([]string{"  ", ""})(&cfg) // no-op
	if cfg.stopwords != nil {
		t.Fatalf("empty stopwords should be ignored")
	}
	WithStopwords([]string{" Phiếu "})(&cfg)
	if _, ok := cfg.stopwords["phieu"]; !ok {
		t.Fatalf("stopwords should be folded: %#v", cfg.stopwords)
	}
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Đình Phát":  "dinh phat",
		"NGUYỄN":     "nguyen",
		"ốc vít":     "oc vit",
		"plain-text": "plain-text",
		"":           "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	idx := NewIndex(queue())
	if idx.Len() != 3 {
		t.Fatalf("Len = %d", idx.Len())
	}
	cases := []struct {
		name string
		q    string
		want []string
	}{
		{"blank keeps all", "   ", []string{"import/1", "invoice/2", "return/3"}},
		{"accent-insensitive partner", "dinh phat", []string{"import/1"}},
		{"accented query", "Bình", []string{"invoice/2"}},
		{"code", "px-0040", []string{"invoice/2"}},
		{"prefix", "ngu", []string{"invoice/2"}},
		{"product name", "inox", []string{"invoice/2"}},
		{"product code", "vit-6", []string{"invoice/2"}},
		{"note", "loi", []string{"return/3"}},
		{"creator", "tran", []string{"return/3"}},
		{"all terms required", "binh loi", []string{}},
		{"shared prefix across docs", "p", []string{}},
		{"no match", "zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := keys(idx.Filter(tc.q)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Filter(%q) = %v; want %v", tc.q, got, tc.want)
			}
		})
	}
}

func TestFilter_ShortTokensNeedExactMatch(t *testing.T) {
	docs := []domain.Document{
		{Type: domain.DocumentImport, ID: 1, Code: "A 1"},
		{Type: domain.DocumentImport, ID: 2, Code: "AB 12"},
	}
	if got := keys(Filter(docs, "a")); !reflect.DeepEqual(got, []string{"import/1"}) {
		t.Fatalf("single rune query = %v", got)
	}
	if got := keys(Filter(docs, "a", WithMinPrefixRunes(1))); !reflect.DeepEqual(got, []string{"import/1", "import/2"}) {
		t.Fatalf("prefix of one rune = %v", got)
	}
}

func TestFilter_Stopwords(t *testing.T) {
	idx := NewIndex(queue(), WithStopwords([]string{"phiếu"}))
	if got := keys(idx.Filter("phieu")); len(got) != 3 {
		t.Fatalf("stopword-only query should keep all, got %v", got)
	}
	if got := keys(idx.Filter("phieu lan")); !reflect.DeepEqual(got, []string{"return/3"}) {
		t.Fatalf("got %v", got)
	}
}

func TestIndex_ConcurrentReads(t *testing.T) {
	idx := NewIndex(queue())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n := len(idx.Filter("binh")); n != 1 {
				t.Errorf("got %d", n)
			}
		}()
	}
	wg.Wait()
}
