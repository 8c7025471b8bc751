package cmd

import (
	"fmt"

	"github.com/dzjyyds666/goini/parse/ini"
	"github.com/dzjyyds666/goini/pkg"
	"github.com/spf13/cobra"
)

type IniParams struct {
	Find   string `json:"find"`   // 查找的key路径
	Input  string `json:"input"`  // 输入文件路径
	Output string `json:"output"` // 输出文件地址
	Unsafe bool   `json:"unsafe"` // 是否允许eval类型
}

var params *IniParams

var iniCmd = &cobra.Command{
	Use:   "ini",
	Short: "ini parse tools",
	Run:   iniRun,
}

func init() {
	params = &IniParams{}
	iniCmd.Flags().StringVarP(&params.Find, "find", "f", "", "find")
	iniCmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path")
	iniCmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path")
	iniCmd.Flags().BoolVarP(&params.Unsafe, "unsafe", "u", false, "allow the eval type")
}

func iniRun(cmd *cobra.Command, args []string) {
	if len(params.Input) == 0 {
		fmt.Println("no input file path")
		return
	}
	exist, err := pkg.CheckFileExist(params.Input)
	if err != nil {
		fmt.Println("check file exist error:", err)
		return
	}
	if !exist {
		fmt.Println("input file not exist")
		return
	}

	config := ini.New(ini.WithSafe(!params.Unsafe))
	if err := config.Read(params.Input); err != nil {
		fmt.Println("parse error:", err)
		return
	}

	if len(params.Find) > 0 {
		value := config.Get(params.Find, nil)
		if value == nil {
			fmt.Println("key not found:", params.Find)
			return
		}
		fmt.Println(value)
		return
	}

	text, err := config.Write()
	if err != nil {
		fmt.Println("write error:", err)
		return
	}
	if len(params.Output) > 0 {
		if err := pkg.WriteStringToFile(params.Output, text); err != nil {
			fmt.Println("write file error:", err)
		}
		return
	}
	fmt.Print(text)
}
