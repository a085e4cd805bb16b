package grading

// Built-in vocabularies, used when the catalog ships none.

// ScienceVocabulary returns the default science vocabulary.
func ScienceVocabulary() Vocabulary {
	return NewVocabulary(
		// biology
		"osmosis", "diffusion", "active transport", "membrane", "concentration gradient",
		"respiration", "aerobic", "anaerobic", "photosynthesis", "chlorophyll", "glucose",
		"oxygen", "carbon dioxide", "lactic acid", "enzyme", "active site", "substrate",
		"denature", "mitochondria", "ribosome", "nucleus", "chromosome", "dna", "gene",
		"allele", "mitosis", "meiosis", "antibody", "antigen", "pathogen", "vaccine",
		"insulin", "glucagon", "hormone", "neurone", "synapse", "homeostasis",
		// chemistry
		"atom", "electron", "proton", "neutron", "isotope", "covalent", "ionic",
		"metallic", "electrolysis", "oxidation", "reduction", "exothermic", "endothermic",
		"catalyst", "activation energy", "equilibrium", "neutralisation", "acid", "alkali",
		"mole", "concentration", "surface area", "collision",
		// physics
		"energy", "kinetic", "potential", "gravitational", "elastic", "thermal",
		"efficiency", "power", "current", "voltage", "resistance", "charge", "force",
		"acceleration", "velocity", "momentum", "friction", "density", "pressure",
		"wavelength", "frequency", "amplitude", "refraction", "reflection", "radiation",
		"half-life", "nucleus decay",
	)
}

// BusinessVocabulary returns the default business vocabulary.
func BusinessVocabulary() Vocabulary {
	return NewVocabulary(
		"revenue", "profit", "loss", "cost", "fixed cost", "variable cost", "break-even",
		"margin", "gross profit", "net profit", "cash flow", "liquidity", "interest",
		"investment", "return on investment", "market share", "market research",
		"segmentation", "target market", "competition", "competitor", "price", "pricing",
		"promotion", "product", "brand", "customer", "demand", "supply",
		"stakeholder", "shareholder", "employee", "motivation", "recruitment", "training",
		"productivity", "quality", "efficiency", "economies of scale", "capacity",
		"supplier", "stock", "inventory", "ethics", "environment", "globalisation",
		"exchange rate", "inflation", "legislation", "risk", "reward", "entrepreneur",
		"limited liability", "unlimited liability", "sole trader", "partnership",
		"franchise", "growth", "expansion", "objective", "survival",
	)
}
