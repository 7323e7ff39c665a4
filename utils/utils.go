package utils

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/biteup/biteup/common"
)

func PressEnterToContinue() {
	fmt.Print("请按回车键继续...")
	_, _ = stdinReader.ReadString('\n')
}

func clearScreen() {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	err := cmd.Run()
	if err != nil {
		common.LogPrintln("", "clearScreen: 清屏失败:", err)
		return
	}
}

var stdinReader = bufio.NewReader(os.Stdin)

func GetUserInput(s string) string {
	if s == "" {
		s = "请输入内容: "
	}
	fmt.Print(s)
	input, err := stdinReader.ReadString('\n')
	if err != nil && input == "" {
		common.LogPrintln("", "GetUserInput:", common.ErStr, "获取用户输入失败:", err)
		return ""
	}
	return strings.TrimSpace(input)
}
