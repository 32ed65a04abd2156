package config

// DefaultConfigYAML is written by `taskflow init`.
const DefaultConfigYAML = `# taskflow configuration
#
# Values not specified here use defaults. Every key can also be set through
# TASKFLOW_<SECTION>_<KEY> environment variables, e.g. TASKFLOW_LOG_LEVEL.

log:
  level: info
  # auto picks a coloured console format on terminals and JSON otherwise.
  format: auto

engine:
  # sequential runs one task at a time; concurrent runs ready tasks together.
  mode: sequential
  max_workers: 4
  # Go duration, empty for no limit.
  task_timeout: ""
  # Skip tasks whose dependencies failed instead of running them.
  skip_on_failed_dependency: false
  reset_before_run: true

events:
  buffer_size: 100

server:
  host: localhost
  port: 8080
  cors: true
  run_history: 100

definitions:
  path: workflows.yaml
  watch: false

report:
  # text, json or yaml
  format: text
  # Directory where every run report is saved; empty disables it.
  dir: ""
`
