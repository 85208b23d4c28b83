package reportparser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser/entities"
)

const flatGeneDescription = "No gene description available."

// DetectShape reports which layout a document uses. A document whose pgxGenes is
// missing or falsy (null, false, 0, "") and which has an array of
// drugRecommendations is flat; anything else must carry a pgxGenes array.
func DetectShape(doc RawReport) (entities.Shape, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: empty document", ErrInvalidReportShape)
	}

	genes, hasGenes := doc.truthy("pgxGenes")
	if !hasGenes {
		if recs, ok := doc.field("drugRecommendations"); ok && isArray(recs) {
			return entities.ShapeFlat, nil
		}
		return "", fmt.Errorf("%w: neither drugRecommendations nor pgxGenes is present", ErrInvalidReportShape)
	}

	if !isArray(genes) {
		return "", fmt.Errorf("%w: pgxGenes must be an array", ErrInvalidReportShape)
	}
	return entities.ShapeGene, nil
}

// Normalize produces the drug records and optional patient info of a document.
// Nothing is returned on failure.
func Normalize(doc RawReport) ([]entities.DrugRecord, *entities.PatientInfo, error) {
	shape, err := DetectShape(doc)
	if err != nil {
		return nil, nil, err
	}

	var records []entities.DrugRecord
	switch shape {
	case entities.ShapeFlat:
		records, err = flatRecords(doc["drugRecommendations"])
	default:
		records, err = geneRecords(doc["pgxGenes"])
	}
	if err != nil {
		return nil, nil, err
	}

	return records, projectPatientInfo(doc), nil
}

// flatRecords maps every drugRecommendations element to exactly one record.
func flatRecords(raw json.RawMessage) ([]entities.DrugRecord, error) {
	items, err := objects(raw, "drugRecommendations")
	if err != nil {
		return nil, err
	}

	records := make([]entities.DrugRecord, 0, len(items))
	for _, d := range items {
		description := text(d["geneDescription"])
		if description == "" {
			description = flatGeneDescription
		}

		records = append(records, entities.DrugRecord{
			Drug:            text(d["drug"]),
			Gene:            text(d["gene"]),
			Diplotype:       text(d["diplotype"]),
			Phenotype:       text(d["phenotype"]),
			Interaction:     text(d["interaction"]),
			Recommendation:  text(d["recommendation"]),
			Category:        text(d["category"]),
			DrugClass:       text(d["class"]),
			GeneDescription: description,
			URLs: entities.URLs{
				DrugBank:  text(d["drugBankLabelURL"]),
				Guideline: text(d["guideline"]),
			},
		})
	}
	return records, nil
}

// geneDrug is one drug of a gene, assembled once from the gene's parallel arrays.
type geneDrug struct {
	name   string
	record entities.DrugRecord
}

// expandGene turns a gene's parallel arrays into one entry per listed drug.
func expandGene(gene map[string]json.RawMessage) []geneDrug {
	drugs := readValues(gene["Drug"])
	if len(drugs.items) == 0 {
		return nil
	}

	geneName := text(gene["Gene"])
	diplotype := text(gene["Diplotype"])
	phenotype := readValues(gene["Phenotype"])
	interaction := readValues(gene["InteractionStrength"])
	recommendation := readValues(gene["Recommendation"])
	category := readValues(gene["DrugCategory"])
	class := readValues(gene["DrugClass"])
	drugBank := readValues(gene["DrugBankLabelURL"])
	guideline := readValues(gene["GuidelineURL"])

	description := fmt.Sprintf("No description available for %s gene.", geneName)
	if consultation := readValues(gene["ConsultationText"]); !consultation.scalar && len(consultation.items) > 0 {
		description = consultation.items[0]
	}

	out := make([]geneDrug, 0, len(drugs.items))
	for i, name := range drugs.items {
		if name == "" {
			logging.Debug("Skipping unnamed drug", "gene", geneName, "position", i)
			continue
		}
		out = append(out, geneDrug{
			name: name,
			record: entities.DrugRecord{
				Drug:            name,
				Gene:            geneName,
				Diplotype:       diplotype,
				Phenotype:       phenotype.forDrug(i),
				Interaction:     interaction.forDrug(i),
				Recommendation:  recommendation.forDrug(i),
				Category:        category.forDrug(i),
				DrugClass:       class.forDrug(i),
				GeneDescription: description,
				URLs: entities.URLs{
					DrugBank:  drugBank.at(i),
					Guideline: guideline.at(i),
				},
			},
		})
	}
	return out
}

// geneRecords expands every gene and merges repeated drug names so that each
// name appears once, keeping the position where it was first seen.
func geneRecords(raw json.RawMessage) ([]entities.DrugRecord, error) {
	genes, err := objects(raw, "pgxGenes")
	if err != nil {
		return nil, err
	}

	var records []entities.DrugRecord
	index := make(map[string]int)

	for _, gene := range genes {
		for _, gd := range expandGene(gene) {
			pos, seen := index[gd.name]
			if !seen {
				index[gd.name] = len(records)
				records = append(records, gd.record)
				continue
			}
			if outranks(gd.record.Interaction, records[pos].Interaction) {
				records[pos] = gd.record
			}
		}
	}

	if records == nil {
		records = []entities.DrugRecord{}
	}
	return records, nil
}

// outranks reports whether a newly seen interaction replaces the stored one.
// Only two promotions exist: major over anything that is not major, and
// moderate over minimal. Ties and unrecognized text never replace.
func outranks(candidate, existing string) bool {
	c := strings.ToLower(candidate)
	e := strings.ToLower(existing)

	if strings.Contains(c, "major") && !strings.Contains(e, "major") {
		return true
	}
	return strings.Contains(c, "moderate") && strings.Contains(e, "minimal")
}
