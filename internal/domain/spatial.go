package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SRIDs of the two stored spatial columns.
const (
	SRIDGeodetic  = 4326
	SRIDProjected = 3857
)

// GeodeticLiteral returns an EWKT point literal tagged with SRID 4326, ready to
// pass to ST_GeogFromText. No range validation is performed.
func GeodeticLiteral(lat, lon float64) string {
	return pointLiteral(SRIDGeodetic, lat, lon)
}

// ProjectedLiteral returns an EWKT point literal tagged with SRID 3857, ready to
// pass to ST_GeomFromEWKT. No range validation is performed.
func ProjectedLiteral(lat, lon float64) string {
	return pointLiteral(SRIDProjected, lat, lon)
}

func pointLiteral(srid int, a, b float64) string {
	return "SRID=" + strconv.Itoa(srid) + ";POINT(" + formatCoord(a) + " " + formatCoord(b) + ")"
}

// formatCoord renders the shortest plain decimal that round-trips v.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePointLiteral decodes an EWKT point literal such as
// "SRID=4326;POINT(1.5 2.5)" into its SRID and two ordinates, in the order
// they appear in the literal.
func ParsePointLiteral(s string) (srid int, a, b float64, err error) {
	head, body, ok := strings.Cut(strings.TrimSpace(s), ";")
	if !ok {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: missing SRID prefix", s)
	}
	sridText, ok := strings.CutPrefix(strings.ToUpper(head), "SRID=")
	if !ok {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: missing SRID prefix", s)
	}
	srid, err = strconv.Atoi(sridText)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: srid: %w", s, err)
	}

	body = strings.TrimSpace(body)
	inner, ok := strings.CutPrefix(strings.ToUpper(body), "POINT(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: not a POINT", s)
	}
	fields := strings.Fields(strings.TrimSuffix(inner, ")"))
	if len(fields) != 2 {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: want 2 ordinates, got %d", s, len(fields))
	}
	if a, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: %w", s, err)
	}
	if b, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("parse point literal %q: %w", s, err)
	}
	return srid, a, b, nil
}
