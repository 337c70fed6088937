package catalog

// DefaultModelID is used when a request names no model.
const DefaultModelID = "medgemma_2b"

var defaultModels = []ModelDescriptor{
	{
		ID:             "medgemma_2b",
		BackendName:    "google/medgemma-2b",
		Description:    "Lightweight medical language model for general medical Q&A",
		Category:       CategoryText,
		Tasks:          []string{"qa", "summarization", "clinical_reasoning"},
		MemoryRequired: "4GB",
		Recommended:    true,
	},
	{
		ID:             "medgemma_9b",
		BackendName:    "google/medgemma-9b",
		Description:    "Larger medical model with better reasoning capabilities",
		Category:       CategoryText,
		Tasks:          []string{"complex_qa", "clinical_decision_support"},
		MemoryRequired: "16GB",
		Recommended:    false,
	},
	{
		ID:             "clinical_bert",
		BackendName:    "emilyalsentzer/Bio_ClinicalBERT",
		Description:    "BERT model trained on clinical notes",
		Category:       CategoryText,
		Tasks:          []string{"ner", "classification", "extraction"},
		MemoryRequired: "1GB",
		Recommended:    true,
	},
	{
		ID:             "medgemma_multimodal",
		BackendName:    "google/medgemma-2b-it",
		Description:    "Multimodal medical model for image understanding",
		Category:       CategoryMultimodal,
		Tasks:          []string{"image_captioning", "visual_qa"},
		MemoryRequired: "8GB",
		Recommended:    false,
	},
	{
		ID:             "wav2vec2_medical",
		BackendName:    "facebook/wav2vec2-base-960h",
		Description:    "Speech recognition for medical transcription",
		Category:       CategoryAudio,
		Tasks:          []string{"transcription", "asr"},
		MemoryRequired: "2GB",
		Recommended:    true,
	},
	{
		ID:             "chexnet",
		BackendName:    "microsoft/chexnet",
		Description:    "Chest X-ray analysis model",
		Category:       CategoryVision,
		Tasks:          []string{"classification", "detection"},
		MemoryRequired: "2GB",
		Recommended:    true,
	},
}

// DefaultDescriptors returns a copy of the built-in model list.
func DefaultDescriptors() []ModelDescriptor {
	out := make([]ModelDescriptor, len(defaultModels))
	for i, d := range defaultModels {
		out[i] = d.clone()
	}
	return out
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultModels...)
	if err != nil {
		panic(err)
	}
	return c
}
