// Package spirv compiles shader data-flow graphs into SPIR-V modules.
//
// SPIR-V is the standard intermediate language for GPU shaders,
// used by Vulkan, OpenCL, and other APIs.
//
// # Compiling graphs
//
// CompileGraph lowers a single graph into a module with one entry point.
// CompileModule additionally compiles the module's functions so that Call and
// Loop nodes can refer to them:
//
//	m, err := spirv.CompileModule(module, spirv.DefaultSettings())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	os.WriteFile("shader.spv", m.Bytes(), 0o644)
//
// Every node is lowered at most once, after all of its arguments, by a
// Builder. There are two builders: ModuleBuilder lowers the main graph into
// the entry point function and owns the module-wide state (ID counter, type
// and constant caches, interface variables); FunctionBuilder lowers a
// function graph and borrows that state from its parent.
//
// Lowering errors are wrapped into a BuildError naming the failing node.
// The causes (WrongArgumentsCountError, BadArgumentsError and others) can be
// matched with errors.As.
//
// # Module container
//
// Module holds the instructions of a module in their logical sections:
//   - Header (magic, version, generator, bound, schema)
//   - Capabilities (required features)
//   - Extended instruction imports (GLSL.std.450)
//   - Memory model (addressing and memory model)
//   - Entry points (shader entry functions)
//   - Execution modes (shader configuration)
//   - Debug information (names)
//   - Annotations (decorations)
//   - Types, constants and global variables
//   - Functions (code)
//
// Assemble and Bytes serialize a module; Parse reads it back and Disassemble
// prints a textual listing.
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv
