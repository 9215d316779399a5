package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/smartcard-app/smartcard/internal/service"
)

// FileSource reads merchant records from a JSON export on disk. The file is
// a flat array of {name, category, lat, lon} objects, the format produced by
// the OSM extract tooling.
type FileSource struct {
	Path string
}

// Load reads and decodes the merchant file.
func (f FileSource) Load(_ context.Context) ([]service.MerchantRecord, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("merchant data file not found: %w", err)
	}

	var records []service.MerchantRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse merchant data file %s: %w", f.Path, err)
	}

	return records, nil
}
