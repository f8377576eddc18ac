package catalog

func notes(numbers ...int64) []ResourceID {
	ids := make([]ResourceID, len(numbers))
	for i, n := range numbers {
		ids[i] = PortalFile(n)
	}
	return ids
}

// Default is the autumn term 2014-2015 catalog for class c2.
func Default() []Module {
	return []Module{
		{
			DisplayName: "[220] Software Engeneering Design",
			Exercises: []Exercise{
				{DisplayName: "[1 CBT] Tut 1", SpecID: 62, DataID: NoFile, ModelID: NoFile},
			},
		},
		{
			DisplayName: "[221] Compilers",
			NoteIDs:     notes(54, 55, 56, 58, 59),
		},
		{
			DisplayName: "[223] Concurrency",
			NoteIDs:     notes(1, 2, 3, 4, 5, 6, 7, 8),
			Exercises: []Exercise{
				{DisplayName: "[1 TUT] Ch 1 and 2", SpecID: 1, DataID: NoFile, ModelID: NoFile},
			},
		},
		{DisplayName: "[240] Models of Computation"},
		{DisplayName: "[245] Statistics"},
		{
			DisplayName: "[261] Laboratory 2",
			Exercises: []Exercise{
				{DisplayName: "[1 LAB] Linkload", SpecID: 37, DataID: NoFile, ModelID: NoFile},
				{DisplayName: "[2 LAB] C++ Enigma", SpecID: 59, DataID: NoFile, ModelID: NoFile},
			},
		},
		{
			DisplayName: "[275] C++ Introduction",
			NoteIDs:     notes(34),
			Exercises: []Exercise{
				{DisplayName: "[1 TUT] Lab 1", SpecID: 40, DataID: 43, ModelID: 46},
				{DisplayName: "[2 TUT] Lab 2", SpecID: 41, DataID: 44, ModelID: 47},
				{DisplayName: "[3 TUT] Lab 3", SpecID: 42, DataID: 45, ModelID: 48},
			},
		},
		{DisplayName: "[276] Introdution to Prolog"},
		{DisplayName: "[701] Programming Competition Training"},
	}
}
