package manager

import (
	"net"
	"strconv"

	"ggufctl/pkg/types"
)

// buildArgs assembles the llama-server command line for spec.
func buildArgs(cfg ManagerConfig, spec types.ModelSpec, port, ctxSize int) []string {
	args := []string{"-m", spec.WeightsPath}
	if spec.ProjectionPath != "" {
		args = append(args, "--mmproj", spec.ProjectionPath)
	}
	args = append(args,
		"--port", strconv.Itoa(port),
		"--offline",
		"-c", strconv.Itoa(ctxSize),
	)
	if cfg.GPULayers != nil && *cfg.GPULayers >= 0 {
		args = append(args, "-ngl", strconv.Itoa(*cfg.GPULayers))
	}
	if cfg.Host != "" && cfg.Host != DefaultHost {
		args = append(args, "--host", cfg.Host)
	}
	return append(args, cfg.ExtraArgs...)
}

// FreePort asks the kernel for an unused TCP port on host.
func FreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(dialHost(host), "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
