package domain

import (
	"fmt"
	"strings"
)

// IDSeparator joins the source and raw id segments of a composite
// product identifier, e.g. "zecat_1234" or "cdo_MUG-208".
const IDSeparator = "_"

// EncodeID builds the composite identifier for a raw source id.
func EncodeID(source Source, rawID string) string {
	return string(source) + IDSeparator + rawID
}

// DecodeID splits a composite identifier into its source and raw id.
// The split happens at the first separator so raw ids may themselves
// contain the separator character.
//
// Returns ErrInvalidIdentifier when the separator is missing, the
// source segment is not recognized, or the raw id segment is empty.
// The source is never guessed from a malformed identifier.
func DecodeID(compositeID string) (Source, string, error) {
	sourcePart, rawID, found := strings.Cut(compositeID, IDSeparator)
	if !found {
		return "", "", fmt.Errorf("%w: %q has no separator", ErrInvalidIdentifier, compositeID)
	}

	source := Source(sourcePart)
	if !source.Valid() {
		return "", "", fmt.Errorf("%w: unknown source %q", ErrInvalidIdentifier, sourcePart)
	}
	if rawID == "" {
		return "", "", fmt.Errorf("%w: %q has empty raw id", ErrInvalidIdentifier, compositeID)
	}

	return source, rawID, nil
}
