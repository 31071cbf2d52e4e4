// Package pipeline chains the compilation stages: load (which drives the
// lexer and parser across imports) and compile. The surface emits at most
// one error per run, so the pipeline stops at the first failing stage.
package pipeline

import (
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/loader"
	"github.com/emberlang/ember/internal/vm"
)

// PipelineContext carries state between processing stages.
type PipelineContext struct {
	RootPath  string
	StdlibDir string

	Workspace *loader.Workspace
	Program   *vm.Program

	Err *diagnostics.Error
}

func NewPipelineContext(rootPath, stdlibDir string) *PipelineContext {
	return &PipelineContext{RootPath: rootPath, StdlibDir: stdlibDir}
}

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline, stopping at the first stage that errors.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if ctx.Err != nil {
			return ctx
		}
	}
	return ctx
}

// LoadProcessor resolves the root file and its imports into a workspace.
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ws, err := loader.New(ctx.StdlibDir).Load(ctx.RootPath)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Workspace = ws
	return ctx
}

// CompileProcessor links a workspace into a bytecode program.
type CompileProcessor struct{}

func (CompileProcessor) Process(ctx *PipelineContext) *PipelineContext {
	program, err := vm.NewCompiler().Compile(ctx.Workspace)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Program = program
	return ctx
}

// CompileFile is the common front half of the toolchain: source path in,
// linked program out.
func CompileFile(rootPath, stdlibDir string) (*PipelineContext, *diagnostics.Error) {
	ctx := New(LoadProcessor{}, CompileProcessor{}).Run(NewPipelineContext(rootPath, stdlibDir))
	if ctx.Err != nil {
		return nil, ctx.Err
	}
	return ctx, nil
}
