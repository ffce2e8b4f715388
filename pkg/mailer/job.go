package mailer

// Job kinds carried on the shared RabbitMQ queue.
const (
	KindWelcomeEmail  = "welcome_email"
	KindArtifactSweep = "artifact_sweep"
)

// Job is the JSON payload put on the queue for the worker binary.
// WelcomeEmail jobs carry To/Name; ArtifactSweep jobs carry the artifact
// reference whose in-request deletion failed.
type Job struct {
	Kind     string `json:"kind"`
	To       string `json:"to,omitempty"`
	Name     string `json:"name,omitempty"`
	Artifact string `json:"artifact,omitempty"`
}

// WelcomeEmail builds the job published after a successful signup.
func WelcomeEmail(to, name string) Job {
	return Job{Kind: KindWelcomeEmail, To: to, Name: name}
}

// ArtifactSweep builds the job published when a best-effort artifact
// release fails and should be retried out-of-band.
func ArtifactSweep(ref string) Job {
	return Job{Kind: KindArtifactSweep, Artifact: ref}
}
