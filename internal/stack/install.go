package stack

import (
	"context"
	"fmt"

	"github.com/tellerj/ollama-stack-sub001/internal/config"
)

// Install writes a fresh configuration, secrets, and compose files, then
// runs environment checks. A failing check is reported but does not roll
// back the install; the user is told to remediate.
func (o *Orchestrator) Install(ctx context.Context, force bool) error {
	dir := o.cfg.Dir

	if config.Exists(dir) && !force {
		if !o.confirm(fmt.Sprintf("Configuration already exists in %s. Overwrite?", dir)) {
			o.reporter.Info("Install cancelled; existing configuration preserved.")
			return nil
		}
	}

	secret, err := config.GenerateSecretKey()
	if err != nil {
		return err
	}
	if err := config.WriteEnvFile(dir, map[string]string{
		"WEBUI_SECRET_KEY": secret,
	}); err != nil {
		return err
	}

	if err := config.Save(o.cfg); err != nil {
		return err
	}
	if err := config.WriteComposeFiles(dir); err != nil {
		return err
	}

	o.logger.Info().Str("dir", dir).Str("platform", string(o.cfg.Platform)).Msg("configuration written")
	o.reporter.Success("Installed stack configuration for platform %s in %s", o.cfg.Platform, dir)

	if o.checks != nil {
		report := o.checks.Run(ctx, o.spec.Files, requiredPorts())
		o.reporter.Checks(report)
		if !report.Passed() {
			o.reporter.Hint("Some environment checks failed. Fix them, then run 'ollama-stack start'.")
		}
	}

	return nil
}

// requiredPorts lists the host ports the core services publish. Fixed to
// the well-known stack layout rather than a compose parse so checks work
// before compose files exist.
func requiredPorts() []int {
	return []int{11434, 8080, 8200}
}
