package cliconfig

// ExitCode mirrors config::ExitCode in original_source/include/config/ExitCode.h:
// a distinct code per validation failure so scripts driving this tool can
// tell a bad bounding box from a missing endpoint URI without parsing text.
type ExitCode int

const (
	Success ExitCode = 0
	Failure ExitCode = 1
	Exception ExitCode = 2
	UnknownArgument ExitCode = 3

	ArgumentMissing ExitCode = 10
	IncorrectArguments ExitCode = 11
	EndpointURIMissing ExitCode = 12
	EndpointURIInvalid ExitCode = 13
	EndpointUpdateURIInvalid ExitCode = 14
	GraphURIInvalid ExitCode = 15
	InputNotExists ExitCode = 16
	InputIsNotDirectory ExitCode = 17
	PolygonFileNotExists ExitCode = 18
	BBoxInvalid ExitCode = 19
)
