package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/permmatch/internal/display"
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Quick start guide for pm",
	Long:  "Display a quick start guide showing common pm workflows.",
	Run: func(cmd *cobra.Command, args []string) {
		b := display.Bold.Render
		a := display.Success.Render
		d := display.Dim.Render

		fmt.Printf("\n%s\n\n", b("pm: Roster to E-mail Permission Matching"))
		fmt.Println("Find the approval e-mail behind every roster entry and classify it.")
		fmt.Println()

		fmt.Println(b("GETTING STARTED"))
		fmt.Printf("  %s           Initialize .permmatch/ in your project\n", a("pm init"))
		fmt.Printf("                   Creates history.db and config.yaml next to your .git root\n\n")

		fmt.Println(b("MATCHING"))
		fmt.Printf("  %s\n", a("pm match --excel roster.xlsx --zip mails.zip --output result.xlsx"))
		fmt.Printf("  %s\n", d("  Writes the 结果 and 需你决策 sheets"))
		fmt.Printf("  %s\n", a(`pm match --excel roster.xlsx --gmail "subject:权限 newer_than:30d"`))
		fmt.Printf("  %s\n\n", d("  Reads messages from Gmail instead of an archive"))
		fmt.Printf("  The roster column %s holds %s or %s.\n\n", b("员工名字工号"), a("张三, E12345"), a("E12345, 张三"))

		fmt.Println(b("SCENARIOS"))
		fmt.Printf("  %s    新增 keywords win\n", display.AddStyle.Render("ADD"))
		fmt.Printf("  %s 删除 keywords win\n", display.RemoveStyle.Render("REMOVE"))
		fmt.Printf("  %s 修改 keywords win (修改密码 does not count)\n", display.ModifyStyle.Render("MODIFY"))
		fmt.Printf("  %s\n\n", d("Ties and messages without keywords default to ADD"))

		fmt.Println(b("DEBUGGING A ROW"))
		fmt.Printf("  %s\n", a(`pm check --employee "张三, E12345" a.eml b.eml`))
		fmt.Printf("  %s\n\n", d("  Lists every occurrence, why it was suppressed, and the keyword counts"))

		fmt.Println(b("HISTORY & ESCALATION"))
		fmt.Printf("  %s       List recorded runs\n", a("pm history"))
		fmt.Printf("  %s   Results of one run\n", a("pm show RUN_ID"))
		fmt.Printf("  %s File needs-decision rows as bd issues\n", a("pm escalate RUN_ID"))
		fmt.Printf("  %s\n\n", d("Run IDs support prefix matching: 'pm show 3f2a' matches IDs starting with '3f2a'"))

		fmt.Println(b("CONFIGURATION"))
		fmt.Printf("  %s   Print the effective heuristics\n", a("pm config show"))
		fmt.Printf("  Override any key with %s variables, e.g. %s\n\n", a("PM_"), a("PM_MATCH_SNIPPET_RADIUS=40"))

		fmt.Println(b("JSON OUTPUT"))
		fmt.Printf("  All commands support %s for machine-readable output.\n\n", a("--json"))
	},
}

func init() {
	rootCmd.AddCommand(quickstartCmd)
}
