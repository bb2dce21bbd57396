package domain

// Canonical tool names the driving agent may invoke on a wizard session.
const (
	ToolPresentQuestion  = "present_question"
	ToolSearchPackages   = "search_packages"
	ToolShowRecommended  = "show_recommendations"
	ToolConfirmPackages  = "confirm_packages"
	ToolFetchDocs        = "fetch_docs"
	ToolIngestLibraryAPI = "ingest_library_api"
	ToolSetIdentity      = "set_agent_identity"
	ToolSetOutputMode    = "set_output_mode"
	ToolSetModel         = "set_model"
	ToolGenerate         = "generate_project"
	ToolInstallPackages  = "install_packages"
	ToolLaunchAgent      = "launch_agent"
	ToolGetState         = "get_state"
)

// Extraction sub-pipeline tool names.
const (
	ToolRequestPage        = "request_page"
	ToolSubmitCoreClasses  = "submit_core_classes"
	ToolSubmitKeyFunctions = "submit_key_functions"
	ToolSubmitPitfalls     = "submit_pitfalls"
	ToolSubmitRecipes      = "submit_recipes"
	ToolFinalize           = "finalize"
)
