package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// Source selects where the catalog is read from at startup. DSN wins over
// File; with neither set the embedded catalog is used.
type Source struct {
	File string
	DSN  string
}

func (s Source) String() string {
	switch {
	case s.DSN != "":
		if i := strings.Index(s.DSN, "://"); i > 0 {
			return "dsn:" + s.DSN[:i]
		}
		return "dsn"
	case s.File != "":
		return "file:" + s.File
	default:
		return "embedded"
	}
}

func DecodeYAML(r io.Reader) ([]Product, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog: empty document")
		}
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if err := Validate(f.Products); err != nil {
		return nil, err
	}
	for i := range f.Products {
		f.Products[i].Tags = nonNilTags(f.Products[i].Tags)
	}
	return f.Products, nil
}

func DefaultProducts() ([]Product, error) {
	return DecodeYAML(bytes.NewReader(defaultCatalog))
}

func LoadFile(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	products, err := DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return products, nil
}

func LoadProducts(ctx context.Context, src Source) ([]Product, error) {
	switch {
	case src.DSN != "":
		db, dialect, err := OpenDB(src.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		products, err := NewSQLStore(db, dialect).List(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", dialect, err)
		}
		return products, nil
	case src.File != "":
		return LoadFile(src.File)
	default:
		return DefaultProducts()
	}
}

// OpenStore loads the catalog once and snapshots it into memory.
func OpenStore(ctx context.Context, src Source) (*MemStore, error) {
	products, err := LoadProducts(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewMemStore(products)
}
