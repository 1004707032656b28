package harness

// Canonical check names.
const (
	CheckDimCoordsRaw   = "dim-coords-raw"
	CheckDimCoords      = "dim-coords"
	CheckBoundsVertices = "bounds-vertices"
	CheckStaggeredGrid  = "staggered-grid"
)

// DefaultModels is the model subset exercised by default. The full catalog
// list is available via the models command or --all-models.
var DefaultModels = []string{"CESM2-FV2", "GFDL-CM4"}

// Builtin expected-failure registries, one per validation category. These
// track known data-quality issues in the archive; an entry here must still
// fail its check — an unexpected pass is escalated (strict xfail).
var builtinRegistries = map[string]*Registry{
	CheckDimCoordsRaw: NewRegistry(
		Spec{"AWI-ESM-1-1-LR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-LR", "thetao", "ssp585", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "ssp585", "gn"},
	),
	CheckDimCoords: NewRegistry(
		Spec{"AWI-ESM-1-1-LR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-LR", "thetao", "ssp585", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "ssp585", "gn"},
		// IPSL has an issue with lev dims concatenation
		Spec{"IPSL-CM6A-LR", "thetao", "historical", "gn"},
		Spec{"IPSL-CM6A-LR", "o2", "historical", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gr"},
	),
	CheckBoundsVertices: NewRegistry(
		Spec{"AWI-ESM-1-1-LR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-MR", "thetao", "ssp585", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "ssp585", "gn"},
		Spec{"CESM2-FV2", "thetao", "historical", "gn"},
		Spec{"FGOALS-f3-L", "thetao", "historical", "gn"},
		Spec{"FGOALS-f3-L", "thetao", "ssp585", "gn"},
		Spec{"FGOALS-g3", "thetao", "historical", "gn"},
		Spec{"FGOALS-g3", "thetao", "ssp585", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gr"},
		Spec{"IPSL-CM6A-LR", "thetao", "historical", "gn"},
		Spec{"IPSL-CM6A-LR", "o2", "historical", "gn"},
	),
	CheckStaggeredGrid: NewRegistry(
		Spec{"AWI-ESM-1-1-LR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-ESM-1-1-MR", "thetao", "ssp585", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "historical", "gn"},
		Spec{"AWI-CM-1-1-MR", "thetao", "ssp585", "gn"},
		Spec{"CESM2-FV2", "thetao", "historical", "gn"},
		Spec{"CMCC-CM2-SR5", "thetao", "historical", "gn"},
		Spec{"CMCC-CM2-SR5", "thetao", "ssp585", "gn"},
		Spec{"FGOALS-f3-L", "thetao", "historical", "gn"},
		Spec{"FGOALS-f3-L", "thetao", "ssp585", "gn"},
		Spec{"FGOALS-g3", "thetao", "historical", "gn"},
		Spec{"FGOALS-g3", "thetao", "ssp585", "gn"},
		Spec{"MPI-ESM-1-2-HAM", "thetao", "historical", "gn"},
		Spec{"MPI-ESM-1-2-HAM", "o2", "historical", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gn"},
		Spec{"NorESM2-MM", "thetao", "historical", "gr"},
		Spec{"IPSL-CM6A-LR", "thetao", "historical", "gn"},
		Spec{"IPSL-CM6A-LR", "o2", "historical", "gn"},
	),
}

// BuiltinRegistry returns a copy of the builtin registry for a check name.
// Unknown names get an empty registry.
func BuiltinRegistry(check string) *Registry {
	reg := NewRegistry()
	if b, ok := builtinRegistries[check]; ok {
		reg.Add(b.Specs()...)
	}
	return reg
}
