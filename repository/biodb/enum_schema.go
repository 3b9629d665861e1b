package biodb

const (
	RunStatusDoing uint = 1
	RunStatusDone  uint = 2
	RunStatusFail  uint = 3
)

const RelationIsA = "is_a"

const (
	AspectMolecularFunction = "molecular_function"
	AspectBiologicalProcess = "biological_process"
	AspectCellularComponent = "cellular_component"
)

const (
	QualifierEnables    = "enables"
	QualifierNotEnables = "NOT|enables"
)
