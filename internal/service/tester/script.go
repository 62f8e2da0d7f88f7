package tester

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScriptName is the MATLAB function run in every test directory.
const ScriptName = "test_package"

const scriptTemplate = `% Test script for {name}
fprintf('\n=== Testing package: {name} ===\n');

% Install package
fprintf('Step 1: Installing {name}...\n');
mip install {name}
fprintf('✓ Install completed\n');

% Load package
fprintf('Step 2: Loading {name}...\n');
mip load {name}
fprintf('✓ Load completed\n');

% Unload package
fprintf('Step 3: Unloading {name}...\n');
mip unload {name}
fprintf('✓ Unload completed\n');

% Uninstall package
fprintf('Step 4: Uninstalling {name}...\n');
mip uninstall {name}
fprintf('✓ Uninstall completed\n');

fprintf('\n=== All tests passed for {name} ===\n');
`

// Script returns the MATLAB test script for the named package.
func Script(name string) string {
	return strings.ReplaceAll(scriptTemplate, "{name}", name)
}

// WriteScript stores Script(name) as test_package.m in dir and returns its path.
func WriteScript(dir, name string) (string, error) {
	path := filepath.Join(dir, ScriptName+".m")

	if err := os.WriteFile(path, []byte(Script(name)), 0o600); err != nil {
		return "", fmt.Errorf("write test script: %w", err)
	}

	return path, nil
}

// BatchCommand is the -batch argument that runs the script from dir.
func BatchCommand(dir string) string {
	return "cd " + dir + "; " + ScriptName
}
