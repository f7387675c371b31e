package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleNamingParse(t *testing.T) {
	tests := []struct {
		name    string
		naming  SampleNaming
		input   string
		want    Sample
		wantErr bool
	}{
		{
			name:   "treatment replicate",
			naming: DefaultSampleNaming(),
			input:  "24h_treatment2",
			want:   Sample{Name: "24h_treatment2", Condition: "24h", Role: RoleTreatment, Replicate: 2},
		},
		{
			name:   "control with underscore in condition",
			naming: DefaultSampleNaming(),
			input:  "WSN_6h_control1",
			want:   Sample{Name: "WSN_6h_control1", Condition: "WSN_6h", Role: RoleControl, Replicate: 1},
		},
		{
			name:   "overlapping prefixes pick the longer",
			naming: SampleNaming{TreatmentPrefix: "p", ControlPrefix: "pnt"},
			input:  "A_pnt3",
			want:   Sample{Name: "A_pnt3", Condition: "A", Role: RoleControl, Replicate: 3},
		},
		{
			name:    "no separator",
			naming:  DefaultSampleNaming(),
			input:   "treatment1",
			wantErr: true,
		},
		{
			name:    "unknown role",
			naming:  DefaultSampleNaming(),
			input:   "24h_mock1",
			wantErr: true,
		},
		{
			name:    "missing replicate number",
			naming:  DefaultSampleNaming(),
			input:   "24h_control",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.naming.Parse(tt.input)
			if tt.wantErr {
				var schemaErr *SchemaError
				require.Error(t, err)
				assert.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, tt.input, schemaErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDesignOrderingAndValidation(t *testing.T) {
	naming := DefaultSampleNaming()
	var samples []Sample
	for _, name := range []string{"c_control2", "c_treatment2", "c_control1", "c_treatment1"} {
		s, err := naming.Parse(name)
		require.NoError(t, err)
		samples = append(samples, s)
	}

	d := NewDesign("c", samples)
	require.NoError(t, d.Validate())
	assert.Equal(t, []string{"c_treatment1", "c_treatment2"}, d.TreatmentNames())
	assert.Len(t, d.Controls(), 2)
	assert.Equal(t, "c_control1", d.Controls()[0].Name)

	s, ok := d.Lookup("c_control2")
	assert.True(t, ok)
	assert.Equal(t, RoleControl, s.Role)
}

func TestDesignValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		design Design
	}{
		{
			name: "no controls",
			design: Design{Condition: "c", Samples: []Sample{
				{Name: "c_treatment1", Condition: "c", Role: RoleTreatment, Replicate: 1},
			}},
		},
		{
			name: "foreign condition",
			design: Design{Condition: "c", Samples: []Sample{
				{Name: "c_treatment1", Condition: "c", Role: RoleTreatment, Replicate: 1},
				{Name: "d_control1", Condition: "d", Role: RoleControl, Replicate: 1},
			}},
		},
		{
			name: "duplicate replicate",
			design: Design{Condition: "c", Samples: []Sample{
				{Name: "c_treatment1", Condition: "c", Role: RoleTreatment, Replicate: 1},
				{Name: "c_treatment01", Condition: "c", Role: RoleTreatment, Replicate: 1},
				{Name: "c_control1", Condition: "c", Role: RoleControl, Replicate: 1},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.design.Validate()
			var schemaErr *SchemaError
			assert.True(t, errors.As(err, &schemaErr), "got %v", err)
		})
	}
}
