// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/propagate/pkg/types"
)

const (
	correlationPrefix = "eo"
	suffixLen         = 8
)

// correlationPattern is the id format the Batches API accepts.
var correlationPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NewCorrelationSuffix returns a random suffix shared by every id of one
// batch.
func NewCorrelationSuffix() string {
	return uuid.NewString()[:suffixLen]
}

// CorrelationID returns the id "eo-<number>-<suffix>".
func CorrelationID(number int, suffix string) string {
	return fmt.Sprintf("%s-%d-%s", correlationPrefix, number, suffix)
}

// ValidCorrelationID reports whether id is accepted as a batch custom id.
func ValidCorrelationID(id string) bool {
	return correlationPattern.MatchString(id)
}

// ParseCorrelationID extracts the order number and suffix from an id.
func ParseCorrelationID(id string) (number int, suffix string, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != correlationPrefix || parts[2] == "" {
		return 0, "", fmt.Errorf("correlation id %q is not of the form eo-<number>-<suffix>", id)
	}
	number, err = strconv.Atoi(parts[1])
	if err != nil || number <= 0 {
		return 0, "", fmt.Errorf("correlation id %q has no valid order number", id)
	}
	return number, parts[2], nil
}

// BatchItem is one request of a batch with its correlation id.
type BatchItem struct {
	CustomID string
	Request  Request
}

// BuildBatch builds one item per order, all sharing suffix. Orders without
// a local PDF are skipped with a warning. A duplicate or invalid id is an
// error.
func BuildBatch(orders []*types.ExecutiveOrder, cfg types.AIConfig, suffix string, log *zap.Logger) ([]BatchItem, error) {
	if log == nil {
		log = zap.NewNop()
	}
	seen := make(map[string]bool, len(orders))
	items := make([]BatchItem, 0, len(orders))
	for _, order := range orders {
		if order.PDFPath == "" {
			log.Warn("skipping order without pdf", zap.Int("eo_number", int(order.Number)))
			continue
		}
		id := CorrelationID(int(order.Number), suffix)
		if !ValidCorrelationID(id) {
			return nil, fmt.Errorf("invalid correlation id %q", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate correlation id %q", id)
		}
		seen[id] = true

		req, err := BuildRequest(order, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("batch request", zap.String("custom_id", id))
		items = append(items, BatchItem{CustomID: id, Request: req})
	}
	return items, nil
}
