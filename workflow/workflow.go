package workflow

import (
	"github.com/ethereum/go-ethereum/common"
)

// WorkspacePrefix is the virtual directory where the network mounts the
// files of every step. Producer and consumer steps must agree on file names
// byte-for-byte, so every name handed to the network starts with it.
const WorkspacePrefix = "/workspace/"

// DependencyKind describes where a step gets one of its input files from.
type DependencyKind uint8

const (
	// KindExternalInput files are downloaded by the network from a URL.
	KindExternalInput DependencyKind = iota

	// KindStepOutput files are produced by an earlier step of the same job.
	KindStepOutput
)

func (k DependencyKind) String() string {
	switch k {
	case KindExternalInput:
		return "Input"
	case KindStepOutput:
		return "Output"
	default:
		return "Unknown"
	}
}

// DataDependency declares a single input file of a step.
type DataDependency struct {
	Kind DependencyKind

	// The file name as seen by the program inside the workspace.
	FileName string

	// Checksum of the file contents. Only set for KindExternalInput.
	Checksum common.Hash

	// Where the network downloads the file from. Only set for KindExternalInput.
	FileURL string

	// Program hash of the step that produces the file. Only set for
	// KindStepOutput.
	SourceStep common.Hash
}

// ExternalInput returns a dependency on a file that the network downloads
// from url and verifies against checksum.
func ExternalInput(checksum common.Hash, fileName, url string) DataDependency {
	return DataDependency{
		Kind:     KindExternalInput,
		FileName: fileName,
		Checksum: checksum,
		FileURL:  url,
	}
}

// StepOutput returns a dependency on fileName as produced by the step that
// runs the source program.
//
// The source program must be the program of an earlier step in the same
// job. This is not checked here; a dangling edge only shows up as an
// execution failure on the network side.
func StepOutput(source common.Hash, fileName string) DataDependency {
	return DataDependency{
		Kind:       KindStepOutput,
		FileName:   fileName,
		SourceStep: source,
	}
}

// Step is a single program invocation.
type Step struct {
	// Content-addressed identifier of the program to run.
	Program common.Hash

	Args   []string
	Inputs []DataDependency
}

// Workflow is an ordered list of steps that has not been signed yet.
type Workflow struct {
	Steps []Step
}

// Job is a signed workflow as submitted to the network. Jobs are never
// mutated after signing; Hash is derived from the rest of the content.
type Job struct {
	Hash      common.Hash
	Author    string
	Workflow  Workflow
	Nonce     uint64
	Signature string
}
