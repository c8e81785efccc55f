package workflow

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// The network speaks the externally tagged JSON layout: dependencies are
// {"Input": {...}} or {"Output": {...}}, and a job carries its workflow
// under {"Run": {"workflow": {...}}}. Hashes are bare lowercase hex.

type wireInput struct {
	Checksum string `json:"checksum"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

type wireOutput struct {
	SourceProgram string `json:"source_program"`
	FileName      string `json:"file_name"`
}

type wireDependency struct {
	Input  *wireInput  `json:"Input,omitempty"`
	Output *wireOutput `json:"Output,omitempty"`
}

type wireStep struct {
	Program string           `json:"program"`
	Args    []string         `json:"args"`
	Inputs  []wireDependency `json:"inputs"`
}

type wireWorkflow struct {
	Steps []wireStep `json:"steps"`
}

type wireRun struct {
	Workflow wireWorkflow `json:"workflow"`
}

type wirePayload struct {
	Run *wireRun `json:"Run"`
}

type wireJob struct {
	Author    string      `json:"author"`
	Hash      string      `json:"hash"`
	Payload   wirePayload `json:"payload"`
	Nonce     uint64      `json:"nonce"`
	Signature string      `json:"signature"`
}

// signedContent is the part of a job covered by its hash.
type signedContent struct {
	Author  string      `json:"author"`
	Payload wirePayload `json:"payload"`
	Nonce   uint64      `json:"nonce"`
}

func toWireWorkflow(wf Workflow) (wireWorkflow, error) {
	steps := make([]wireStep, len(wf.Steps))
	for i, step := range wf.Steps {
		deps := make([]wireDependency, len(step.Inputs))
		for j, dep := range step.Inputs {
			switch dep.Kind {
			case KindExternalInput:
				deps[j].Input = &wireInput{
					Checksum: HashHex(dep.Checksum),
					FileName: dep.FileName,
					FileURL:  dep.FileURL,
				}
			case KindStepOutput:
				deps[j].Output = &wireOutput{
					SourceProgram: HashHex(dep.SourceStep),
					FileName:      dep.FileName,
				}
			default:
				return wireWorkflow{}, xerrors.Errorf("step %d input %d: %w: unknown dependency kind %d", i, j, ErrValidation, dep.Kind)
			}
		}
		args := step.Args
		if args == nil {
			args = []string{}
		}
		steps[i] = wireStep{Program: HashHex(step.Program), Args: args, Inputs: deps}
	}
	return wireWorkflow{Steps: steps}, nil
}

func fromWireWorkflow(w wireWorkflow) (Workflow, error) {
	steps := make([]Step, len(w.Steps))
	for i, ws := range w.Steps {
		program, err := ParseHash(ws.Program)
		if err != nil {
			return Workflow{}, xerrors.Errorf("step %d program: %w", i, err)
		}
		var inputs []DataDependency
		if len(ws.Inputs) > 0 {
			inputs = make([]DataDependency, len(ws.Inputs))
		}
		for j, wd := range ws.Inputs {
			switch {
			case wd.Input != nil:
				checksum, err := ParseHash(wd.Input.Checksum)
				if err != nil {
					return Workflow{}, xerrors.Errorf("step %d input %d: %w", i, j, err)
				}
				inputs[j] = ExternalInput(checksum, wd.Input.FileName, wd.Input.FileURL)
			case wd.Output != nil:
				source, err := ParseHash(wd.Output.SourceProgram)
				if err != nil {
					return Workflow{}, xerrors.Errorf("step %d input %d: %w", i, j, err)
				}
				inputs[j] = StepOutput(source, wd.Output.FileName)
			default:
				return Workflow{}, xerrors.Errorf("step %d input %d: %w: neither Input nor Output", i, j, ErrValidation)
			}
		}
		var args []string
		if len(ws.Args) > 0 {
			args = ws.Args
		}
		steps[i] = Step{Program: program, Args: args, Inputs: inputs}
	}
	return Workflow{Steps: steps}, nil
}

// MarshalJSON encodes the job in the network's transaction layout.
func (j *Job) MarshalJSON() ([]byte, error) {
	wf, err := toWireWorkflow(j.Workflow)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireJob{
		Author:    j.Author,
		Hash:      HashHex(j.Hash),
		Payload:   wirePayload{Run: &wireRun{Workflow: wf}},
		Nonce:     j.Nonce,
		Signature: j.Signature,
	})
}

// UnmarshalJSON decodes a job from the network's transaction layout.
func (j *Job) UnmarshalJSON(data []byte) error {
	var w wireJob
	if err := json.Unmarshal(data, &w); err != nil {
		return xerrors.Errorf("decode job: %w: %v", ErrValidation, err)
	}
	if w.Payload.Run == nil {
		return xerrors.Errorf("decode job: %w: payload is not a Run", ErrValidation)
	}
	hash, err := ParseHash(w.Hash)
	if err != nil {
		return xerrors.Errorf("decode job: %w", err)
	}
	wf, err := fromWireWorkflow(w.Payload.Run.Workflow)
	if err != nil {
		return xerrors.Errorf("decode job: %w", err)
	}

	*j = Job{
		Hash:      hash,
		Author:    w.Author,
		Workflow:  wf,
		Nonce:     w.Nonce,
		Signature: w.Signature,
	}
	return nil
}
