// remsctl is the operator companion to the Pulumi stack: it resolves the
// discovery markers the stack persists in SSM Parameter Store and reports
// on the running deployment.
package main

func main() {
	Execute()
}
