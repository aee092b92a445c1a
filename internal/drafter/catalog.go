package drafter

// PromptSpec is one question the checklist generator asks of the customer
// documents.
type PromptSpec struct {
	ID       string
	Question string
}

// CategorySpec is a named group of prompts. Category names double as the
// vocabulary for quote assumption tagging and conflict categories, so the
// comparator can join both sides by name.
type CategorySpec struct {
	ID      string
	Name    string
	Prompts []PromptSpec
}

// defaultCatalog is the built-in manufacturing prompt catalog. Prompt IDs
// are stable identifiers: regenerating a checklist reuses them, which keeps
// diffs between checklist versions readable.
var defaultCatalog = []CategorySpec{
	{
		ID:   "materials",
		Name: "Materials",
		Prompts: []PromptSpec{
			{ID: "materials-alloy", Question: "What material or alloy is specified, including temper and governing standard?"},
			{ID: "materials-certs", Question: "Are material certifications or mill test reports required?"},
			{ID: "materials-coatings", Question: "Are coatings, platings, or surface treatments specified?"},
		},
	},
	{
		ID:   "tolerances",
		Name: "Tolerances",
		Prompts: []PromptSpec{
			{ID: "tolerances-general", Question: "What general tolerance standard applies to undimensioned features?"},
			{ID: "tolerances-critical", Question: "Are critical dimensions called out with tighter tolerances?"},
			{ID: "tolerances-finish", Question: "Are surface finish requirements specified?"},
		},
	},
	{
		ID:   "quality",
		Name: "Inspection & Quality",
		Prompts: []PromptSpec{
			{ID: "quality-inspection", Question: "What inspection level or sampling plan is required?"},
			{ID: "quality-fai", Question: "Is a first article inspection required, and to what standard?"},
			{ID: "quality-traceability", Question: "Are lot or serial traceability requirements specified?"},
		},
	},
	{
		ID:   "delivery",
		Name: "Delivery & Packaging",
		Prompts: []PromptSpec{
			{ID: "delivery-schedule", Question: "What delivery schedule or lead time is required?"},
			{ID: "delivery-packaging", Question: "Are packaging, labeling, or preservation requirements specified?"},
		},
	},
	{
		ID:   "compliance",
		Name: "Compliance & Standards",
		Prompts: []PromptSpec{
			{ID: "compliance-standards", Question: "Which industry or customer standards govern the work?"},
			{ID: "compliance-export", Question: "Are there export control, ITAR, or country-of-origin restrictions?"},
		},
	},
}

// Catalog returns the prompt catalog used for checklist generation.
func Catalog() []CategorySpec {
	return defaultCatalog
}

// CategoryNames returns the catalog's category names in catalog order.
func CategoryNames() []string {
	names := make([]string, len(defaultCatalog))
	for i, c := range defaultCatalog {
		names[i] = c.Name
	}
	return names
}
