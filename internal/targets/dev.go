package targets

// Development container settings. The dockerfile is expected at the
// repository root.
const (
	devImage      = "hyperschedule-dev"
	devDockerfile = "Dockerfile.dev"
)

// DevTarget builds the development container image and enters it with the
// repository mounted at /src.
func DevTarget() Target {
	return Target{
		Name:    "dev",
		Summary: "Build the development container image and enter it",
		Run: func(ctx *Context) error {
			if err := run(ctx, "docker", "build", "-t", devImage, "-f", devDockerfile, "."); err != nil {
				return err
			}
			return run(ctx, "docker", "run", "--rm", "-it",
				"-v", ctx.Dir+":/src", "-w", "/src", devImage)
		},
	}
}

// HelpTarget prints the target listing to stderr.
func HelpTarget(r *Registry) Target {
	return Target{
		Name:    "help",
		Summary: "Show this listing of targets",
		Run: func(ctx *Context) error {
			r.PrintHelp(ctx.Stderr)
			return nil
		},
	}
}
