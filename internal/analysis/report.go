package analysis

import (
	"a11y-server/internal/accname"
	"a11y-server/internal/aria"
	"a11y-server/internal/table"
)

// Report is the result of analyzing one document.
type Report struct {
	Version      aria.Version    `json:"version"`
	ElementCount int             `json:"elementCount"`
	Elements     []ElementReport `json:"elements"`
	Tables       []TableReport   `json:"tables,omitempty"`
	Summary      Summary         `json:"summary"`
}

// ElementReport holds everything computed for one element.
type ElementReport struct {
	Path           string                  `json:"path"`
	Tag            string                  `json:"tag"`
	Role           string                  `json:"role,omitempty"`
	ExplicitRole   bool                    `json:"explicitRole,omitempty"`
	Hidden         bool                    `json:"hidden,omitempty"`
	Name           *accname.Result         `json:"name"`
	Description    *accname.Result         `json:"description,omitempty"`
	ErrorMessage   *accname.Result         `json:"errorMessage,omitempty"`
	GroupingLabels []accname.GroupingLabel `json:"groupingLabels,omitempty"`
	ARIA           *aria.Info              `json:"aria"`
	// OwnedBy holds the paths of the elements whose aria-owns names this
	// element.
	OwnedBy []string    `json:"ownedBy,omitempty"`
	Cell    *CellReport `json:"cell,omitempty"`
}

// MissingName reports whether the role requires a name and none was found.
func (e *ElementReport) MissingName() bool {
	return e.ARIA.IsNameRequired && e.Name.Name == ""
}

// TableReport summarizes one table grid.
type TableReport struct {
	Path             string       `json:"path"`
	Type             table.Type   `json:"type"`
	Name             string       `json:"name,omitempty"`
	Rows             int          `json:"rows"`
	Columns          int          `json:"columns"`
	NestingLevel     int          `json:"nestingLevel,omitempty"`
	HasCaption       bool         `json:"hasCaption,omitempty"`
	RowGroups        int          `json:"rowGroups,omitempty"`
	HeaderCells      int          `json:"headerCells"`
	SpannedDataCells int          `json:"spannedDataCells,omitempty"`
	Cells            []CellReport `json:"cells"`
}

// CellReport is one placed table cell.
type CellReport struct {
	Path         string             `json:"path"`
	Row          int                `json:"row"`
	Column       int                `json:"column"`
	RowSpan      int                `json:"rowSpan"`
	ColumnSpan   int                `json:"columnSpan"`
	IsHeader     bool               `json:"isHeader,omitempty"`
	Headers      []string           `json:"headers,omitempty"`
	HeaderSource table.HeaderSource `json:"headerSource"`
}

// Summary counts the problems recorded across all elements.
type Summary struct {
	InvalidRoles      int `json:"invalidRoles"`
	AbstractRoles     int `json:"abstractRoles"`
	InvalidAttrs      int `json:"invalidAttrs"`
	InvalidAttrValues int `json:"invalidAttrValues"`
	InvalidRefs       int `json:"invalidRefs"`
	UnsupportedAttrs  int `json:"unsupportedAttrs"`
	DeprecatedAttrs   int `json:"deprecatedAttrs"`
	MissingRequired   int `json:"missingRequired"`
	MissingNames      int `json:"missingNames"`
	ProhibitedNames   int `json:"prohibitedNames"`
}

// Total is the sum of all counts.
func (s Summary) Total() int {
	return s.InvalidRoles + s.AbstractRoles + s.InvalidAttrs + s.InvalidAttrValues +
		s.InvalidRefs + s.UnsupportedAttrs + s.DeprecatedAttrs + s.MissingRequired +
		s.MissingNames + s.ProhibitedNames
}

func (s *Summary) add(e *ElementReport) {
	info := e.ARIA
	if info.HasRole {
		if !info.IsValidRole {
			s.InvalidRoles++
		} else if info.IsAbstractRole {
			s.AbstractRoles++
		}
	}
	s.InvalidAttrs += len(info.InvalidAttrs)
	s.InvalidAttrValues += len(info.InvalidAttrValues)
	s.InvalidRefs += len(info.InvalidRefs)
	s.UnsupportedAttrs += len(info.UnsupportedAttrs)
	s.DeprecatedAttrs += len(info.DeprecatedAttrs)
	s.MissingRequired += len(info.MissingRequiredAttrs())
	if e.Hidden {
		return
	}
	if e.MissingName() {
		s.MissingNames++
	}
	if info.IsNameProhibited && e.Name.Name != "" && e.Name.Source != accname.SourceContents {
		s.ProhibitedNames++
	}
}
