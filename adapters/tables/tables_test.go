package tables

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"guildscore/domain/core"
	"guildscore/domain/guild"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &r))
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadInteractions_CSV(t *testing.T) {
	path := writeFile(t, "interactions.csv", `Plant ID,Partner Taxon,Kind,Category
# comment rows are skipped
Malus_domestica,Aphis_pomi,herbivore,pest_control
Malus_domestica,Glomus_intraradices,AMF,

Trifolium_repens,Apis_mellifera,Pollinator,pollination
`)

	records, err := ReadInteractions(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, guild.InteractionRecord{
		PlantID: "Malus_domestica", PartnerTaxon: "Aphis_pomi",
		Kind: guild.KindHerbivore, Category: guild.CategoryPestControl,
	}, records[0])
	assert.Equal(t, guild.KindMycorrhizalAMF, records[1].Kind)
	assert.Equal(t, guild.CategoryBeneficialFungi, records[1].Category, "category derived from kind")
	assert.Equal(t, guild.CategoryPollination, records[2].Category)
}

func TestReadInteractions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
		msg     string
	}{
		{
			name:    "unknown kind",
			content: "plant_id,partner_taxon,kind\nA,x,herbivore\nA,y,parasitoid\n",
			target:  core.ErrUnknownInteractionKind,
			msg:     "line 3",
		},
		{
			name:    "category mismatch",
			content: "plant_id,partner_taxon,kind,category\nA,x,pollinator,pest_control\n",
			target:  core.ErrInvalidRecord,
			msg:     "line 2",
		},
		{
			name:    "missing partner",
			content: "plant_id,partner_taxon,kind\nA,,herbivore\n",
			target:  core.ErrInvalidRecord,
			msg:     "line 2",
		},
		{
			name:    "bad category",
			content: "plant_id,partner_taxon,kind,category\nA,x,herbivore,pests\n",
			target:  core.ErrInvalidRecord,
			msg:     "line 2",
		},
		{
			name:    "comments and blank lines before the bad row",
			content: "plant_id,partner_taxon,kind\n# apples\nA,x,herbivore\n\n# pears\nB,y,parasitoid\n",
			target:  core.ErrUnknownInteractionKind,
			msg:     "line 6",
		},
		{
			name:    "comment above the header",
			content: "# exported 2024-03-01\nplant_id,partner_taxon,kind\nA,,herbivore\n",
			target:  core.ErrInvalidRecord,
			msg:     "line 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInteractions(writeFile(t, "interactions.csv", tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadInteractions_MissingColumn(t *testing.T) {
	_, err := ReadInteractions(writeFile(t, "interactions.csv", "plant_id,kind\nA,herbivore\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partner_taxon")
}

func TestReadSheet_UnsupportedAndMissing(t *testing.T) {
	_, err := ReadInteractions(writeFile(t, "interactions.json", "{}"))
	assert.ErrorContains(t, err, "unsupported table format")

	_, err = ReadInteractions(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorContains(t, err, "not found")
}

func TestReadMechanisms(t *testing.T) {
	path := writeFile(t, "mechanisms.csv", `target_taxon,antagonist_taxon,category
Aphis_pomi,Coccinella_septempunctata,pest_control
Venturia_inaequalis,Trichoderma_harzianum,disease-suppression
`)
	records, err := ReadMechanisms(path)
	require.NoError(t, err)
	assert.Equal(t, []guild.KnownMechanismRecord{
		{Target: "Aphis_pomi", Antagonist: "Coccinella_septempunctata", Category: guild.CategoryPestControl},
		{Target: "Venturia_inaequalis", Antagonist: "Trichoderma_harzianum", Category: guild.CategoryDiseaseSuppression},
	}, records)

	_, err = ReadMechanisms(writeFile(t, "bad.csv", "target,antagonist,category\nx,y,pollination\n"))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}

func TestReadTraits_CSV(t *testing.T) {
	path := writeFile(t, "traits.csv", `plant_id,height_m,light_preference,csr_c,csr_s,csr_r,ph_min,ph_max
Malus_domestica,6,7.5,80,10,10,5.5,7
Trifolium_repens,0.2,NA,,,,6,
`)
	rows, err := ReadTraits(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	apple := rows[0]
	require.NotNil(t, apple.HeightM)
	assert.Equal(t, 6.0, *apple.HeightM)
	assert.True(t, apple.HasCSR())
	assert.Nil(t, apple.HardinessMin, "absent column reads as undocumented")

	clover := rows[1]
	assert.Nil(t, clover.LightPreference)
	assert.False(t, clover.HasCSR())
	require.NotNil(t, clover.PHMin)
	assert.Nil(t, clover.PHMax)
}

func TestReadTraits_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not a number", "plant_id,height_m\nA,tall\n"},
		{"negative height", "plant_id,height_m\nA,-1\n"},
		{"csr out of range", "plant_id,csr_c\nA,120\n"},
		{"inverted ph", "plant_id,ph_min,ph_max\nA,7,5\n"},
		{"missing plant", "plant_id,height_m\n,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTraits(writeFile(t, "traits.csv", tt.content))
			assert.ErrorIs(t, err, core.ErrInvalidRecord)
			assert.ErrorContains(t, err, "line 2")
		})
	}
}

func TestReadTraits_XLSX(t *testing.T) {
	path := writeWorkbook(t, "traits.xlsx", [][]interface{}{
		{"plant_id", "height_m", "csr_c", "csr_s", "csr_r"},
		{"Quercus_robur", "25", "90", "20", "5"},
		{"Allium_schoenoprasum", "0.3"},
	})
	rows, err := ReadTraits(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].HeightM)
	assert.Equal(t, 25.0, *rows[0].HeightM)
	assert.True(t, rows[0].HasCSR())
	assert.False(t, rows[1].HasCSR(), "short rows leave trailing traits undocumented")
}

func TestReadTraits_XLSXErrorLine(t *testing.T) {
	path := writeWorkbook(t, "traits.xlsx", [][]interface{}{
		{"plant_id", "height_m"},
		{"Quercus_robur", "25"},
		{"Allium_schoenoprasum", "short"},
	})
	_, err := ReadTraits(path)
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
	assert.ErrorContains(t, err, "traits.xlsx line 3")
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	src := Source{
		InteractionsPath: writeWorkbook(t, "interactions.xlsx", [][]interface{}{
			{"plant_id", "partner_taxon", "kind"},
			{"Malus_domestica", "Aphis_pomi", "herbivore"},
		}),
	}

	records, err := src.Interactions(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	mechanisms, err := src.Mechanisms(ctx)
	require.NoError(t, err)
	assert.Empty(t, mechanisms, "unset path yields an empty table")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Traits(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadStrata(t *testing.T) {
	path := writeFile(t, "strata.csv", `plant_id,stratum
Malus_domestica,temperate
Pyrus_communis,temperate
Malus_domestica,temperate
Mangifera_indica,tropical
Malus_domestica,tropical
`)
	strata, err := ReadStrata(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"temperate": {"Malus_domestica", "Pyrus_communis"},
		"tropical":  {"Mangifera_indica", "Malus_domestica"},
	}, strata)

	_, err = ReadStrata(writeFile(t, "bad.csv", "plant_id,stratum\nA,\n"))
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
}
