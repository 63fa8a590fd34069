package importer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// Parser converts a bank notification text into a BankNotification.
type Parser interface {
	Parse(text string) (model.BankNotification, bool)
	Trusted(source, text string) bool
	Bank() string
}

// Registry holds parsers keyed by bank name.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes a message file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate bank.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Bank())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser bank: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for bank, or nil.
func (r *Registry) Get(bank string) Parser {
	return r.parsers[strings.ToLower(bank)]
}

// Match returns the first registered parser that trusts the message, or nil.
func (r *Registry) Match(source, text string) Parser {
	for _, key := range r.order {
		if p := r.parsers[key]; p.Trusted(source, text) {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with a parser for each bank name.
func DefaultRegistry(banks ...string) *Registry {
	r := NewRegistry()
	for _, b := range banks {
		r.Register(NewBankParser(b))
	}
	return r
}

// importDir is the subdirectory for message files.
const importDir = "import"

// processedDir is the subdirectory for processed message files.
const processedDir = "import/processed"

// Scan returns message files (*.txt) in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// ReadMessages reads one message per line. A line is either "<sender>\t<text>"
// or bare text with no sender. Blank lines are skipped.
func ReadMessages(r io.Reader) ([]model.InboundMessage, error) {
	var msgs []model.InboundMessage
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		msg := model.InboundMessage{Text: line}
		if sender, text, ok := strings.Cut(line, "\t"); ok {
			msg.Source = strings.TrimSpace(sender)
			msg.Text = strings.TrimSpace(text)
		}
		msgs = append(msgs, msg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	return msgs, nil
}

// ReadFile reads all messages from a message file.
func ReadFile(path string) ([]model.InboundMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	msgs, err := ReadMessages(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return msgs, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
