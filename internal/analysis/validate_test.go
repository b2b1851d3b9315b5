package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/lawlens/internal/analysis/domain"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "plain html", filename: "law.html", wantErr: false},
		{name: "short html extension", filename: "directive.htm", wantErr: false},
		{name: "xml", filename: "regulation.xml", wantErr: false},
		{name: "uppercase extension", filename: "LAW.HTML", wantErr: false},
		{name: "mixed case extension", filename: "brief.Xml", wantErr: false},
		{name: "pdf rejected", filename: "brief.pdf", wantErr: true},
		{name: "no extension", filename: "README", wantErr: true},
		{name: "empty name", filename: "", wantErr: true},
		{name: "extension embedded in name", filename: "law.html.docx", wantErr: true},
		{name: "trailing dot", filename: "law.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.filename)

			if tt.wantErr {
				require.Error(t, err)
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "Only .html or .xml files are accepted.", verr.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
